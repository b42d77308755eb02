package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/orders-tracker/internal/analyzer"
	"github.com/joseph-ayodele/orders-tracker/internal/common"
	"github.com/joseph-ayodele/orders-tracker/internal/mcp"
	"github.com/joseph-ayodele/orders-tracker/internal/orders"
	repo "github.com/joseph-ayodele/orders-tracker/internal/repository"
	"github.com/joseph-ayodele/orders-tracker/internal/server"
)

var version = "dev"

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	// stdout carries the protocol; NewLogger writes to stderr
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid timezone", "tz", cfg.Analyzer.Timezone, "error", err)
		os.Exit(2)
	}

	ctx := context.Background()
	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		os.Exit(1)
	}
	defer server.CloseDB(db, logger)

	svc := orders.NewService(repo.NewOrderRepository(db, logger), repo.NewContactRepository(db, logger), logger,
		orders.WithAnalysisRuns(repo.NewAnalysisRunRepository(db, logger)),
		orders.WithAnalyzer(analyzer.New(analyzer.WithClock(analyzer.ClockIn(loc)))),
	)

	logger.Info("orders-mcp serving on stdio", "version", version)
	if err := mcp.Serve(mcp.NewServer(mcp.ServerConfig{Orders: svc, Version: version})); err != nil {
		logger.Error("mcp serve error", "error", err)
		os.Exit(1)
	}
}
