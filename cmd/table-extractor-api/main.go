// Package main provides the table extractor API server entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spherical/table-extractor/internal/artifact"
	"github.com/spherical/table-extractor/internal/config"
	"github.com/spherical/table-extractor/internal/observability"
	"github.com/spherical/table-extractor/pkg/extractor"
)

func main() {
	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("artifact", cfg.Artifact.Driver).
		Str("uploads", cfg.Storage.UploadsDir).
		Msg("Starting table extractor API")

	if err := os.MkdirAll(cfg.Storage.UploadsDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create uploads directory")
	}

	ctx := context.Background()
	store, err := artifact.New(ctx, cfg.Artifact)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create artifact store")
	}
	defer store.Close()

	client, err := extractor.NewClientWithConfig(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build pipeline")
	}

	router := NewRouter(logger, AppConfig{
		UploadsDir:     cfg.Storage.UploadsDir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		CORSOrigins:    cfg.Server.CORSOrigins,
		ServiceName:    cfg.Observability.ServiceName,
	}, client.Pipeline(), store)

	// Create server
	addr := cfg.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt or error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server error")
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
