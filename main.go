package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "net/http/pprof"

	"github.com/giygas/formulary-api/config"
	"github.com/giygas/formulary-api/data"
	"github.com/giygas/formulary-api/handlers"
	"github.com/giygas/formulary-api/interfaces"
	"github.com/giygas/formulary-api/llm"
	"github.com/giygas/formulary-api/logging"
	"github.com/giygas/formulary-api/query"
	"github.com/giygas/formulary-api/scheduler"
	"github.com/giygas/formulary-api/server"
	"github.com/giygas/formulary-api/storage"
	"github.com/giygas/formulary-api/validation"
)

func main() {
	// .env is optional: real deployments configure through the environment
	if err := godotenv.Load(); err != nil {
		logging.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLoggerForConfig("logs", cfg)

	if err := config.ValidateAllEnvVars(); err != nil {
		logging.Error("Environment validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storage.Connect(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logging.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	catalog := data.NewCatalogContainer()
	catalog.SetServerStartTime(time.Now())

	// The LLM collaborators are optional: without an API key the service
	// runs rule-based parsing and template answers only.
	var intents interfaces.IntentExtractor
	var answers interfaces.AnswerGenerator
	if cfg.OpenRouterAPIKey != "" {
		client := llm.NewClient(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, llm.RetryPolicy{
			MaxAttempts: cfg.LLMMaxRetries,
			Backoff:     2 * time.Second,
		})
		intents = llm.NewIntentService(client)
		answers = llm.NewAnswerService(client)
	} else {
		logging.Warn("OPENROUTER_API_KEY not set, LLM fallback and answer generation disabled")
	}

	sched := scheduler.NewScheduler(catalog, store, time.Duration(cfg.CatalogRefreshMinutes)*time.Minute)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start catalog scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	resolver := query.NewResolver(catalog, store, intents)
	executor := query.NewExecutor(store, catalog)
	handler := handlers.NewHTTPHandler(catalog, store, resolver, executor, answers, validation.NewQueryValidator())

	srv := server.NewServer(cfg, catalog, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}
}
