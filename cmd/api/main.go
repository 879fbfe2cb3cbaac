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

	"github.com/riskibarqy/highlight-sync/internal/app"
	"github.com/riskibarqy/highlight-sync/internal/config"
	"github.com/riskibarqy/highlight-sync/internal/observability"
	"github.com/riskibarqy/highlight-sync/internal/platform/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
		Version: cfg.ServiceVersion,
	})
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	if err := serve(cfg, logger); err != nil {
		logger.Error("api stopped with error", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func serve(cfg config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stopObservability, err := observability.Start(cfg, logger)
	if err != nil {
		return err
	}

	pipeline, err := app.NewPipeline(ctx, cfg, logger, app.Overrides{})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	srv, err := app.NewHTTPServer(cfg, pipeline, logger)
	if err != nil {
		return fmt.Errorf("build http server: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := []error{runErr}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := pipeline.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := stopObservability(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("flush observability: %w", err))
	}
	if runErr == nil {
		errs = append(errs, <-serveErr)
	}

	logger.Info("http server stopped")
	return errors.Join(errs...)
}
