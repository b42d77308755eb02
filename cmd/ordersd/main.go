package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/joseph-ayodele/orders-tracker/internal/analyzer"
	"github.com/joseph-ayodele/orders-tracker/internal/common"
	"github.com/joseph-ayodele/orders-tracker/internal/contacts"
	"github.com/joseph-ayodele/orders-tracker/internal/export"
	"github.com/joseph-ayodele/orders-tracker/internal/orders"
	repo "github.com/joseph-ayodele/orders-tracker/internal/repository"
	"github.com/joseph-ayodele/orders-tracker/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (default $ORDERS_CONFIG or config.yaml)")
		addr       = flag.String("addr", "", "gRPC listen address, overrides config")
		dsn        = flag.String("db", "", "database DSN, overrides config")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if *addr != "" {
		cfg.Server.GRPCAddr = *addr
	}
	if *dsn != "" {
		cfg.Database.DSN = *dsn
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
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

	if err := server.PingDB(ctx, db, logger, 5*time.Second); err != nil {
		os.Exit(1)
	}

	orderRepo := repo.NewOrderRepository(db, logger)
	contactRepo := repo.NewContactRepository(db, logger)
	runRepo := repo.NewAnalysisRunRepository(db, logger)

	orderSvc := orders.NewService(orderRepo, contactRepo, logger,
		orders.WithAnalysisRuns(runRepo),
		orders.WithAnalyzer(analyzer.New(analyzer.WithClock(analyzer.ClockIn(loc)))),
	)
	contactSvc := contacts.NewService(contactRepo, logger)
	exportSvc := export.NewService(orderRepo, logger)

	if len(cfg.Contacts) > 0 {
		n, err := contactSvc.Seed(ctx, cfg.Contacts)
		if err != nil {
			logger.Error("failed to seed contacts", "error", err)
			os.Exit(1)
		}
		logger.Info("contacts seeded", "created", n, "configured", len(cfg.Contacts))
	}

	var sweeper *orders.Sweeper
	if cfg.Sweep.Enabled {
		sweeper, err = orders.NewSweeper(orderSvc, cfg.Sweep.Schedule, loc, logger)
		if err != nil {
			logger.Error("failed to schedule overdue sweep", "error", err)
			os.Exit(2)
		}
		sweeper.RunOnce(ctx)
		sweeper.Start()
	}

	gs, hs := server.NewGRPCServer(
		server.NewOrderServer(orderSvc, contactSvc, exportSvc, logger),
		logger,
		server.Options{Reflection: cfg.Server.Reflection},
	)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	logger.Info("orders-tracker listening", "addr", lis.Addr().String(), "dialect", db.Dialect(), "reflection", cfg.Server.Reflection)
	go func() {
		if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	hs.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sweeper != nil {
		sweeper.Stop(shutdownCtx)
	}
	gracefulStop(shutdownCtx, gs)
	logger.Info("stopped")
}

// gracefulStop waits for in-flight calls until ctx expires, then forces the stop.
func gracefulStop(ctx context.Context, gs *grpc.Server) {
	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		gs.Stop()
	}
}

func loadConfig(path string) (*common.Config, error) {
	if path != "" {
		return common.LoadConfigFile(path)
	}
	return common.LoadConfig()
}
