// Package app assembles the notification core from configuration.
// cmd/api-server and cmd/alertctl share it so both see the same store,
// vendor directory, mailer and outbox.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"agrimarket/database"
	"agrimarket/internal/config"
	"agrimarket/internal/mailer"
	"agrimarket/internal/microservices/http-api/models"
	"agrimarket/internal/microservices/http-api/repository"
	"agrimarket/internal/microservices/http-api/service"
	"agrimarket/internal/outbox"
)

const memoryOutboxCapacity = 1024

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Repo    repository.NotificationRepository
	Vendors repository.VendorDirectory
	Mailer  *mailer.Dispatcher
	Service service.NotificationService

	// Outbox is nil in inline dispatch mode
	Outbox outbox.StatsQueue

	closers []func()
}

// Build connects every backing service named by cfg. On error anything
// already opened is released.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger

	switch cfg.StoreBackend {
	case config.BackendMemory:
		contacts, err := cfg.DevContacts()
		if err != nil {
			return err
		}
		dir := repository.StaticVendorDirectory{}
		for _, c := range contacts {
			dir[c.VendorID] = models.VendorContact{Email: c.Email, DisplayName: c.Name}
		}
		a.Repo = repository.NewMemoryNotificationRepository()
		a.Vendors = dir
		logger.Warn("memory_store_in_use", "vendors", len(dir))
	default:
		db, err := database.ConnectDB(cfg, logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { database.Close(db) })
		a.Repo = repository.NewNotificationRepository(db)

		pool, err := database.ConnectPool(ctx, cfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pool.Close)
		a.Vendors = repository.NewVendorDirectory(pool)
	}

	var err error
	a.Mailer, err = mailer.NewDispatcher(mailer.Config{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Username:   cfg.SMTPUsername,
		Password:   cfg.SMTPPassword,
		From:       cfg.SMTPFrom,
		FromName:   cfg.SMTPFromName,
		BaseURL:    cfg.FrontendURL,
		Timeout:    cfg.MailSendTimeout,
		RatePerSec: cfg.MailRatePerSec,
	}, nil, logger)
	if err != nil {
		return err
	}

	opts := service.AlertOptions{
		SendTimeout:     cfg.MailSendTimeout,
		RetentionWindow: cfg.RetentionWindow,
	}
	if cfg.AlertDispatchMode == config.DispatchQueue {
		q, err := openOutbox(ctx, cfg)
		if err != nil {
			return fmt.Errorf("outbox: %w", err)
		}
		a.closers = append(a.closers, func() { q.Close() })
		a.Outbox = q
		opts.Queue = q
	}

	a.Service = service.NewNotificationService(a.Repo, a.Vendors, a.Mailer, opts, logger)
	return nil
}

func openOutbox(ctx context.Context, cfg *config.Config) (outbox.StatsQueue, error) {
	if cfg.OutboxBackend == config.OutboxMemory {
		return outbox.NewMemoryQueue(memoryOutboxCapacity), nil
	}
	return outbox.NewRedisQueue(ctx, cfg.RedisURL)
}

// WorkerPool returns the outbox consumer, or nil in inline mode
func (a *App) WorkerPool() *outbox.WorkerPool {
	if a.Outbox == nil {
		return nil
	}
	// one attempt is a vendor lookup plus one send
	return outbox.NewWorkerPool(a.Outbox, a.Service.DeliverStockAlert, outbox.PoolConfig{
		Workers:        a.Config.AlertWorkers,
		MaxAttempts:    a.Config.AlertMaxAttempts,
		AttemptTimeout: 2 * a.Config.MailSendTimeout,
	}, a.Logger)
}

// Close releases connections in reverse order of opening
func (a *App) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
