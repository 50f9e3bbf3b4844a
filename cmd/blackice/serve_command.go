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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/afroash/blackice/internal/config"
	"github.com/afroash/blackice/internal/metrics"
	"github.com/afroash/blackice/internal/server"
	"github.com/afroash/blackice/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Logging, os.Stdout)
			if err != nil {
				return err
			}
			return runServer(ctx, cfg, logger)
		},
	}
}

func runServer(ctx *commandContext, cfg *config.AppConfig, logger zerolog.Logger) error {
	logger.Info().
		Str("version", version).
		Int("port", cfg.Server.Port).
		Str("model", cfg.Gemini.Model).
		Str("readings", cfg.Readings.Source).
		Msg("Starting black-ice gateway")
	logger.Debug().Str("config", cfg.String()).Msg("Configuration loaded")

	if !cfg.HasAPIKey() {
		logger.Warn().Msg("Missing GEMINI_API_KEY; AI endpoints will fail until it is set")
	}

	readings, closeReadings, err := openReadings(cfg.Readings, logger)
	if err != nil {
		return err
	}
	defer closeReadings()

	m := metrics.New()
	client := ctx.geminiClient(context.Background(), logger, m)

	apiHandler := server.NewAPIHandler(server.APIHandlerConfig{
		Readings:     readings,
		Classifier:   ctx.classifier(client, logger, m),
		Lister:       client,
		HistoryHours: cfg.Readings.HistoryHours,
		Version:      version,
	}, logger)

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: server.NewRouter(apiHandler, server.RouterConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Metrics:        m,
		}, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down server...")
	case err, ok := <-serveErr:
		if ok {
			logger.Error().Err(err).Msg("Server failed")
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
		return err
	}

	logger.Info().Msg("Server stopped")
	return nil
}

// openReadings returns the configured reading source and its cleanup
func openReadings(settings config.ReadingsSettings, logger zerolog.Logger) (server.ReadingSource, func(), error) {
	if settings.Source != config.SourceSQLite {
		logger.Info().Msg("Serving demo readings")
		return storage.NewDemoSource(), func() {}, nil
	}

	store, err := storage.NewSQLiteStore(settings.DBPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open readings database: %w", err)
	}
	logger.Info().Str("path", settings.DBPath).Msg("Serving readings from SQLite")

	return store, func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("SQLiteStore close failed")
			return
		}
		logger.Info().Msg("SQLiteStore closed")
	}, nil
}
