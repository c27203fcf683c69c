package core

// scheduler.go runs history retention in the background.
//
// The prune job runs once on start and then every CheckInterval until the
// context is cancelled. Failures are logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// HistoryConfig holds configuration for the history scheduler.
// Zero values fall back to the defaults below.
type HistoryConfig struct {
	RetentionDays int           // Days to keep extraction records (default: 30)
	CheckInterval time.Duration // How often to run (default: 24h)
}

const (
	defaultRetentionDays = 30
	defaultCheckInterval = 24 * time.Hour
)

func (c HistoryConfig) withDefaults() HistoryConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = defaultRetentionDays
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = defaultCheckInterval
	}
	return c
}

// StartHistoryScheduler prunes extraction history older than the retention
// window. It blocks until ctx is cancelled.
func (s *Service) StartHistoryScheduler(ctx context.Context, cfg HistoryConfig) {
	cfg = cfg.withDefaults()
	slog.Info("history scheduler started",
		"retention_days", cfg.RetentionDays,
		"check_interval", cfg.CheckInterval,
	)

	runPruneJob(ctx, s.store, cfg.RetentionDays, time.Now)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history scheduler stopped")
			return
		case <-ticker.C:
			runPruneJob(ctx, s.store, cfg.RetentionDays, time.Now)
		}
	}
}

// runPruneJob performs one prune cycle and returns the number of records removed.
func runPruneJob(ctx context.Context, store HistoryStore, retentionDays int, now func() time.Time) int64 {
	start := time.Now()
	cutoff := now().AddDate(0, 0, -retentionDays)

	pruned, err := store.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return 0
	}

	slog.Info("pruned extraction history",
		"entries_pruned", pruned,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return pruned
}
