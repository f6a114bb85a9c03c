package service

import (
	"context"
	"log/slog"
	"time"
)

// RetentionSweeper periodically runs CleanupOldNotifications
type RetentionSweeper struct {
	svc      NotificationService
	interval time.Duration
	logger   *slog.Logger
}

func NewRetentionSweeper(svc NotificationService, interval time.Duration, logger *slog.Logger) *RetentionSweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionSweeper{svc: svc, interval: interval, logger: logger}
}

// Run sweeps once per interval until ctx is cancelled. A failed sweep is
// logged and retried on the next tick.
func (r *RetentionSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("retention_sweeper_started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("retention_sweeper_stopped")
			return nil
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep bounded by one minute
func (r *RetentionSweeper) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	deleted, err := r.svc.CleanupOldNotifications(ctx)
	if err != nil {
		r.logger.Error("retention_sweep_failed", "error", err)
		return 0, err
	}
	r.logger.Info("retention_sweep_done", "deleted", deleted)
	return deleted, nil
}
