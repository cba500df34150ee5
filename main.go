// Package main is the entry point for the payment notification pipeline.
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

	"gitlab.com/yelinaung/paynotify/internal/categorize"
	"gitlab.com/yelinaung/paynotify/internal/config"
	"gitlab.com/yelinaung/paynotify/internal/database"
	"gitlab.com/yelinaung/paynotify/internal/gemini"
	"gitlab.com/yelinaung/paynotify/internal/ingest"
	"gitlab.com/yelinaung/paynotify/internal/logger"
	"gitlab.com/yelinaung/paynotify/internal/orchestrator"
	"gitlab.com/yelinaung/paynotify/internal/repository"
	"gitlab.com/yelinaung/paynotify/internal/server"
	"gitlab.com/yelinaung/paynotify/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("paynotify %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.SetLevel(cfg.LogLevel)
	logger.InitHashSalt()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg, version)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer flushCancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Log.Error().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	if err := database.SeedCategories(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to seed categories")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	categories := repository.NewCategoryRepository(pool)
	mappings := repository.NewMerchantMappingRepository(pool)
	expenses := repository.NewExpenseRepository(pool)
	audits := repository.NewAutoCreatedExpenseRepository(pool)

	engineOpts := []categorize.Option{categorize.WithCacheTTL(cfg.MappingCacheTTL)}
	if cfg.MLResolverEnabled() {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		engineOpts = append(engineOpts, categorize.WithMLSuggester(client))
		logger.Log.Info().Msg("Gemini category suggestions enabled")
	}
	engine := categorize.NewEngine(categories, mappings, engineOpts...)

	ingestion := ingest.NewService(pool, engine)
	approval := ingest.NewApprovalWorkflow(pool, engine)

	// No IMAP/SMS gateway is wired here; email batches are driven through
	// the API with caller-supplied messages until a source is configured.
	pipeline := orchestrator.New(nil, ingestion, engine)

	api := server.New(pipeline, approval, engine, expenses, audits, mappings, cfg.MaxEmails)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server shutdown failed")
	}
}
