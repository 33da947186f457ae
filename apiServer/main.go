package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"gitlab.connectwisedev.com/pos-service/pkg/app"
	"gitlab.connectwisedev.com/pos-service/pkg/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadEnv() // Load environment variables first

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := app.NewLogger(cfg)
	storefront, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer storefront.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           storefront.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_started", "addr", srv.Addr, "store", cfg.StoreDriver, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server_failed", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown_requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
		return
	}
	logger.Info("server_stopped")
}
