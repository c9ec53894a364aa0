package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/moriyama-ds/slipcheck/internal/config"
	"github.com/moriyama-ds/slipcheck/internal/core"
	"github.com/moriyama-ds/slipcheck/internal/history"
	"github.com/moriyama-ds/slipcheck/internal/logging"
	"github.com/moriyama-ds/slipcheck/internal/metrics"
	"github.com/moriyama-ds/slipcheck/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"encoding", cfg.Check.Encoding,
		"column_count", cfg.Check.ColumnCount,
		"history_enabled", cfg.HistoryEnabled(),
	)

	ctx := context.Background()

	// Run history persists only when a database URL is configured.
	var store *history.Store
	if cfg.HistoryEnabled() {
		poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			slog.Error("failed to parse database URL", "error", err)
			os.Exit(1)
		}
		poolConfig.MaxConns = int32(cfg.Database.MaxConns)
		poolConfig.MinConns = int32(cfg.Database.MinConns)
		poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			slog.Error("failed to ping database", "error", err)
			os.Exit(1)
		}

		store = history.New(pool)
		if err := store.Init(ctx); err != nil {
			slog.Error("failed to prepare history schema", "error", err)
			os.Exit(1)
		}
		slog.Info("run history enabled")
	}

	profile := config.DefaultProfile()
	if cfg.Check.ProfilePath != "" {
		profile, err = config.LoadProfile(cfg.Check.ProfilePath)
		if err != nil {
			slog.Error("failed to load rule profile", "path", cfg.Check.ProfilePath, "error", err)
			os.Exit(1)
		}
		slog.Info("rule profile loaded", "path", cfg.Check.ProfilePath)
	}

	m := metrics.New()

	// Interfaces stay nil when history is off; a typed nil *Store would
	// defeat the nil checks downstream.
	var recorder core.RunRecorder
	var lister web.RunLister
	if store != nil {
		recorder = store
		lister = store
	}

	service, err := core.NewService(cfg, profile, m, recorder)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(cfg, service, lister, m.Handler())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
