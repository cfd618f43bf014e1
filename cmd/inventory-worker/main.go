package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sailcare/clinic-api/internal/config"
	"github.com/sailcare/clinic-api/internal/db"
	"github.com/sailcare/clinic-api/internal/inventory"
	"github.com/sailcare/clinic-api/internal/logger"
)

const runTimeout = 20 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.InitLogger(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.L()

	log.Infow("inventory worker starting up",
		"env", cfg.Env,
		"interval", cfg.WorkerInterval,
		"expiry_window", cfg.ExpiryWarningWindow,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{
		MaxConns: cfg.PostgresMaxConns,
		AppName:  "inventory-worker",
	})
	cancelPg()
	if err != nil {
		log.Errorw("postgres connection error", "error", err)
		logger.Sync()
		os.Exit(1)
	}
	defer pgPool.Close()
	log.Infow("connected to Postgres")

	svc := inventory.NewService(inventory.NewPgRepository(pgPool), cfg.ExpiryWarningWindow)

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Infow("shutdown signal received, stopping inventory worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *inventory.Service) {
	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	start := time.Now()
	report, err := svc.RefreshStatuses(runCtx, start)
	if err != nil {
		logger.L().Errorw("inventory refresh failed", "error", err, "checked", report.Checked)
		return
	}
	logger.L().Infow("inventory refresh complete",
		"checked", report.Checked,
		"updated", report.Updated,
		"expiring", len(report.Expiring),
		"took", time.Since(start),
	)
}
