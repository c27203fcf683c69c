package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/sheetsections/internal/config"
	"github.com/JonMunkholm/sheetsections/internal/core"
	"github.com/JonMunkholm/sheetsections/internal/extract"
	"github.com/JonMunkholm/sheetsections/internal/logging"
	"github.com/JonMunkholm/sheetsections/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	return cmd
}

func runServe(ctx context.Context, envFile string) error {
	if err := godotenv.Load(envFile); err != nil {
		slog.Info("no .env file found, using environment variables", "path", envFile)
	} else {
		slog.Info("loaded .env file", "path", envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openHistoryStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open history store", "error", err)
		return err
	}
	defer closeStore()

	service, err := core.NewService(store, extract.New(nil), cfg.Upload)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	server := web.NewServer(service, cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(gctx)
	})

	g.Go(func() error {
		service.StartHistoryScheduler(gctx, core.HistoryConfig{
			RetentionDays: cfg.History.RetentionDays,
			CheckInterval: cfg.History.CheckInterval,
		})
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		// Timed-out extractions can outlive their requests.
		if err := service.WaitForUploads(shutdownCtx); err != nil {
			slog.Warn("uploads did not complete in time", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}

// openHistoryStore connects to PostgreSQL when a database URL is configured,
// and falls back to a bounded in-memory store otherwise.
func openHistoryStore(ctx context.Context, cfg *config.Config) (core.HistoryStore, func(), error) {
	if !cfg.Database.Enabled() {
		slog.Info("no database configured, keeping history in memory", "limit", cfg.History.MemoryLimit)
		return core.NewMemoryStore(cfg.History.MemoryLimit), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	store := core.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}
