package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrimarket/internal/app"
	"agrimarket/internal/config"
	"agrimarket/internal/microservices/http-api/service"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup_failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http_server_started",
			"addr", srv.Addr,
			"store", cfg.StoreBackend,
			"dispatch_mode", cfg.AlertDispatchMode,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("received_shutdown_signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	sweeper := service.NewRetentionSweeper(a.Service, cfg.RetentionInterval, logger)
	g.Go(func() error { return sweeper.Run(gctx) })

	if pool := a.WorkerPool(); pool != nil {
		g.Go(func() error { return pool.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("server_error", "error", err)
		os.Exit(1)
	}
	logger.Info("server_stopped_gracefully")
}
