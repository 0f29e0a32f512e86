package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"momentum/internal/backend"
	"momentum/internal/cli"
	apphttp "momentum/internal/http"
	"momentum/internal/log"
)

func main() {
	cfg, logger := cli.MustLoad(log.ComponentApp)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	app, err := backend.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Transactions: app.Transactions,
		Habits:       app.Habits,
		Budgets:      app.Budgets,
		Settings:     app.Settings,
		Ingest:       app.Ingest,
		DB:           app.Repo,
	}, logger, apphttp.Options{})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting momentum server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			app.Close()
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
