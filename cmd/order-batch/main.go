package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joseph-ayodele/orders-tracker/internal/analyzer"
	"github.com/joseph-ayodele/orders-tracker/internal/async"
	"github.com/joseph-ayodele/orders-tracker/internal/common"
	"github.com/joseph-ayodele/orders-tracker/internal/export"
	"github.com/joseph-ayodele/orders-tracker/internal/ingest"
	"github.com/joseph-ayodele/orders-tracker/internal/orders"
	repo "github.com/joseph-ayodele/orders-tracker/internal/repository"
	"github.com/joseph-ayodele/orders-tracker/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir     = flag.String("dir", "", "directory of order notes (.txt/.md) to process (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		workers = flag.Int("workers", 4, "number of analysis workers")
		fromStr = flag.String("from", "", "export orders due on or after YYYY-MM-DD")
		toStr   = flag.String("to", "", "export orders due on or before YYYY-MM-DD")
		watch   = flag.Bool("watch", false, "keep watching -dir for new notes until interrupted")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "orders.xlsx")
	}

	// validated up front so a bad flag fails before any work
	filter, err := orders.ListOrdersRequest{FromDate: *fromStr, ToDate: *toStr}.Filter()
	if err != nil {
		printError("Error: invalid --from/--to date, use YYYY-MM-DD: %v\n", err)
		os.Exit(1)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: config: %v\n", err)
		os.Exit(2)
	}
	if *inmem {
		cfg.Database.DSN = ":memory:"
	}

	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid timezone", "tz", cfg.Analyzer.Timezone, "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		os.Exit(1)
	}
	defer server.CloseDB(db, logger)

	orderRepo := repo.NewOrderRepository(db, logger)
	orderSvc := orders.NewService(orderRepo, repo.NewContactRepository(db, logger), logger,
		orders.WithAnalysisRuns(repo.NewAnalysisRunRepository(db, logger)),
		orders.WithAnalyzer(analyzer.New(analyzer.WithClock(analyzer.ClockIn(loc)))),
	)

	queue := async.NewProcessorQueue(orderSvc, logger,
		async.WithWorkers(*workers),
		async.WithQueueSize(512),
		async.WithProcessTimeout(30*time.Second),
	)

	ingestor := ingest.NewFSIngestor(logger)
	enqueue := func(snippets []ingest.Snippet) int {
		n := 0
		for _, s := range snippets {
			job := async.Job{Source: s.SourcePath, Index: s.Index, Text: s.Text, Format: s.Format, TraceID: s.HashHex[:12]}
			if err := queue.Enqueue(ctx, job); err != nil {
				logger.Warn("failed to enqueue snippet", "source", s.SourcePath, "index", s.Index, "error", err)
				continue
			}
			n++
		}
		return n
	}

	logger.Info("starting ingestion", "dir", *dir)
	snippets, _, stats, err := ingestor.IngestDirectory(ctx, *dir, true)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	queued := enqueue(snippets)
	logger.Info("ingestion complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"snippets", stats.Snippets,
		"deduplicated", stats.Deduplicated)

	if *watch {
		queued += watchDir(ctx, *dir, ingestor, enqueue, logger)
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	queue.Shutdown(drainCtx)
	qs := queue.Stats()

	logger.Info("exporting to XLSX", "output", *out)
	xlsxBytes, err := export.NewService(orderRepo, logger).ExportOrdersXLSX(drainCtx, filter)
	if err != nil {
		logger.Error("failed to export orders", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"snippets_queued", queued,
		"orders_created", qs.Processed,
		"failures", qs.Failed,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Notes queued: %d\n", queued)
	fmt.Printf("- Orders created: %d\n", qs.Processed)
	fmt.Printf("- Failures: %d\n", qs.Failed)
	fmt.Printf("- Output: %s\n", *out)
}

// watchDir feeds new or changed notes files to enqueue until ctx is done.
func watchDir(ctx context.Context, dir string, ing *ingest.FSIngestor, enqueue func([]ingest.Snippet) int, logger *slog.Logger) int {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:    []string{dir},
		Debounce: 500 * time.Millisecond,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		return 0
	}
	logger.Info("watching for new notes, interrupt to export", "dir", dir)

	queued := 0
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return queued
			}
			snippets, r, err := ing.IngestPath(ctx, path)
			if err != nil {
				logger.Warn("failed to ingest changed file", "path", path, "error", err)
				continue
			}
			queued += enqueue(snippets)
			logger.Info("file re-ingested", "path", r.SourcePath, "snippets", r.Snippets, "deduplicated", r.Deduplicated)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
