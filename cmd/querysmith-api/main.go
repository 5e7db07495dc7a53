package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/querysmith/querysmith/internal/api"
	"github.com/querysmith/querysmith/internal/api/uistatic"
	"github.com/querysmith/querysmith/internal/auth"
	"github.com/querysmith/querysmith/internal/catalog/sqldb"
	"github.com/querysmith/querysmith/internal/config"
	"github.com/querysmith/querysmith/internal/generate"
	"github.com/querysmith/querysmith/internal/nl2sql"
	"github.com/querysmith/querysmith/internal/observability"
	"github.com/querysmith/querysmith/internal/schema"
	"github.com/querysmith/querysmith/internal/sqlexec"
)

func main() {
	// A local .env is a development convenience; absence is normal.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("querysmith-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	db, err := sqldb.Open(context.Background(), sqldb.DBConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	repository := sqldb.NewRepository(db, cfg.Database.Driver)

	summarizer := schema.NewSummarizer(repository, schema.Limits{
		MaxDatabases: cfg.Schema.MaxDatabases,
		MaxTables:    cfg.Schema.MaxTables,
		MaxColumns:   cfg.Schema.MaxColumns,
	}, observability.ComponentLogger(logger, "schema"))

	translator, err := nl2sql.NewGeminiTranslator(nl2sql.GeminiConfig{
		BaseURL:        cfg.AI.BaseURL,
		APIKey:         cfg.AI.APIKey,
		FallbackModels: cfg.AI.FallbackModels,
		Temperature:    cfg.AI.Temperature,
		Timeout:        cfg.AI.Timeout,
		Logger:         observability.ComponentLogger(logger, "translator"),
	})
	if err != nil {
		logger.Error("failed to initialize translator", slog.Any("error", err))
		os.Exit(1)
	}

	deps := api.Dependencies{
		Logger:    logger,
		Catalog:   repository,
		Generator: generate.NewService(summarizer, translator, cfg.AI.Dialect, observability.ComponentLogger(logger, "generate")),
		Executor:  sqlexec.NewExecutor(db),
		UI:        uistatic.Handler(),
		Readiness: api.CombineReadinessChecks(
			repository.HealthCheck,
			api.CheckDatabaseDSN(cfg),
		),
		GenerateTimeout:   cfg.HTTP.GenerateTimeout,
		ExecuteTimeout:    cfg.HTTP.ExecuteTimeout,
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(observability.ComponentLogger(logger, "auth"), validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
