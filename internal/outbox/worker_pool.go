package outbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"agrimarket/internal/metrics"

	"github.com/cenkalti/backoff/v4"
)

// Handler performs one delivery attempt for a job
type Handler func(ctx context.Context, job Job) error

// Permanent marks an error that retrying cannot fix, e.g. an unknown vendor
func Permanent(err error) error {
	return backoff.Permanent(err)
}

type PoolConfig struct {
	Workers         int
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// AttemptTimeout bounds one handler call, vendor lookup included
	AttemptTimeout  time.Duration
}

// WorkerPool drains a Queue with a fixed number of workers. Each job gets
// up to MaxAttempts tries with exponential backoff, then is dead-lettered.
type WorkerPool struct {
	queue  Queue
	handle Handler
	cfg    PoolConfig
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewWorkerPool(queue Queue, handle Handler, cfg PoolConfig, logger *slog.Logger) *WorkerPool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 30 * time.Second
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}
	return &WorkerPool{queue: queue, handle: handle, cfg: cfg, logger: logger}
}

// Run starts the workers and blocks until ctx is cancelled and every
// worker has returned. A job interrupted by shutdown is put back.
func (wp *WorkerPool) Run(ctx context.Context) error {
	for i := 0; i < wp.cfg.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
	wp.logger.Info("outbox_workers_started", "workers", wp.cfg.Workers, "max_attempts", wp.cfg.MaxAttempts)

	wp.wg.Wait()
	wp.logger.Info("outbox_workers_stopped")
	return nil
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		job, err := wp.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrQueueClosed) {
				return
			}
			wp.logger.Error("outbox_dequeue_failed", "worker", id, "error", err)
			// avoid spinning on a broken connection
			select {
			case <-time.After(wp.cfg.InitialInterval):
			case <-ctx.Done():
				return
			}
			continue
		}

		wp.process(ctx, id, job)
	}
}

func (wp *WorkerPool) process(ctx context.Context, id int, job Job) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = wp.cfg.InitialInterval
	b.MaxInterval = wp.cfg.MaxInterval
	b.MaxElapsedTime = 0

	remaining := wp.cfg.MaxAttempts - job.Attempt
	if remaining < 1 {
		remaining = 1
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(remaining-1)), ctx)

	attempt := func() error {
		job.Attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, wp.cfg.AttemptTimeout)
		defer cancel()
		return wp.handle(attemptCtx, job)
	}
	notify := func(err error, wait time.Duration) {
		metrics.OutboxJobs.WithLabelValues("retried").Inc()
		wp.logger.Warn("outbox_job_retry",
			"worker", id,
			"job_id", job.ID,
			"attempt", job.Attempt,
			"retry_in", wait,
			"error", err,
		)
	}

	err := backoff.RetryNotify(attempt, policy, notify)
	if err == nil {
		metrics.OutboxJobs.WithLabelValues("delivered").Inc()
		return
	}

	if ctx.Err() != nil {
		wp.requeue(job)
		return
	}

	metrics.OutboxJobs.WithLabelValues("dead_lettered").Inc()
	wp.logger.Error("outbox_job_dead_lettered",
		"worker", id,
		"job_id", job.ID,
		"kind", job.Kind,
		"vendor_id", job.VendorID,
		"notification_id", job.NotificationID,
		"attempts", job.Attempt,
		"error", err,
	)
	dlCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if dlErr := wp.queue.DeadLetter(dlCtx, job, err); dlErr != nil {
		wp.logger.Error("outbox_dead_letter_failed", "job_id", job.ID, "error", dlErr)
	}
}

// requeue puts back a job whose retries were cut short by shutdown
func (wp *WorkerPool) requeue(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := wp.queue.Enqueue(ctx, job); err != nil {
		wp.logger.Error("outbox_requeue_failed", "job_id", job.ID, "error", err)
		return
	}
	metrics.OutboxJobs.WithLabelValues("requeued").Inc()
}
