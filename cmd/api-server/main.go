package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sailcare/clinic-api/internal/api"
	"github.com/sailcare/clinic-api/internal/appointment"
	"github.com/sailcare/clinic-api/internal/auth"
	"github.com/sailcare/clinic-api/internal/config"
	"github.com/sailcare/clinic-api/internal/db"
	"github.com/sailcare/clinic-api/internal/healthrecord"
	"github.com/sailcare/clinic-api/internal/inventory"
	"github.com/sailcare/clinic-api/internal/logger"
	"github.com/sailcare/clinic-api/internal/patient"
	redisclient "github.com/sailcare/clinic-api/internal/redis"
	"github.com/sailcare/clinic-api/internal/user"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := logger.InitLogger(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	log := logger.L()

	log.Infow("api-server starting up", "env", cfg.Env, "http_port", cfg.HTTPPort, "version", version)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{
		MaxConns: cfg.PostgresMaxConns,
		AppName:  "api-server",
	})
	cancelPg()
	if err != nil {
		return fmt.Errorf("postgres connection: %w", err)
	}
	defer pgPool.Close()
	log.Infow("connected to Postgres")

	migCtx, cancelMig := context.WithTimeout(rootCtx, 30*time.Second)
	applied, err := db.NewMigrator(pgPool).Up(migCtx)
	cancelMig()
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Infow("migrations applied", "count", applied)

	rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		return fmt.Errorf("redis connection: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warnw("error closing redis", "error", err)
		}
	}()
	log.Infow("connected to Redis", "addr", cfg.RedisAddr)

	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	seq := redisclient.NewSequence(rdb, locker)

	patients := patient.NewService(patient.NewPgRepository(pgPool), seq)
	appointments := appointment.NewService(appointment.NewPgRepository(pgPool), locker, seq, cfg)
	users := user.NewService(user.NewPgRepository(pgPool), patients, appointments)
	records := healthrecord.NewService(healthrecord.NewPgRepository(pgPool))
	products := inventory.NewService(inventory.NewPgRepository(pgPool), cfg.ExpiryWarningWindow)

	router := api.NewRouter(api.RouterConfig{
		Users:        users,
		Patients:     patients,
		Appointments: appointments,
		Records:      records,
		Inventory:    products,
		Tokens:       auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Postgres:     api.PingFunc(pgPool.Ping),
		Redis: api.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}),
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-rootCtx.Done():
		log.Infow("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Infow("api-server stopped")
	return nil
}
