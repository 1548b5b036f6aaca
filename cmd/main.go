package main

import (
	"bufio"
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"taskflow/internal/auth"
	"taskflow/internal/cache"
	"taskflow/internal/chat"
	"taskflow/internal/config"
	"taskflow/internal/controller"
	"taskflow/internal/database"
	"taskflow/internal/llm"
	"taskflow/internal/queue"
	"taskflow/internal/repository"
	"taskflow/internal/routes"
	"taskflow/internal/worker"
	"taskflow/pkg/logger"
)

func main() {
	loadEnvFile(".env")

	ctx := context.Background()
	cfg := config.Get()

	db, err := database.Open(ctx)
	if err != nil {
		logger.Error(ctx, "Database not available; exiting", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(ctx, db); err != nil {
		logger.Error(ctx, "Schema migration failed", "error", err)
		os.Exit(1)
	}
	store := repository.NewPostgres(db)

	// Cache and queue degrade gracefully when unavailable.
	cacheClient := cache.New(ctx)
	events := queue.NewPublisher(ctx)
	events.EnsureTopic(ctx)

	// Activity worker: consumes task events, aggregates per-user counters.
	go worker.Run(ctx, cacheClient)

	chatModel, err := llm.NewChatModel(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "Chat model init failed; exiting", "error", err)
		os.Exit(1)
	}
	registry := chat.NewRegistry(store, controller.NewMutationHook(cacheClient, events, "chat"))
	orch := chat.NewOrchestrator(chatModel, registry, store, time.Duration(cfg.OpenAITimeout)*time.Second)

	chain := auth.NewChain(
		auth.NewSessionVerifier(store),
		auth.NewJWTVerifier(cfg.AuthSecret),
	)

	ct := controller.New(store, orch, cacheClient, events, db)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      routes.Router(ct, chain),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown error", "error", err)
	}
	if err := events.Close(); err != nil {
		logger.Warn(ctx, "Kafka producer close error", "error", err)
	}
	if err := db.Close(); err != nil {
		logger.Warn(ctx, "Database close error", "error", err)
	}
	logger.Info(ctx, "Server stopped")
}

// loadEnvFile reads a .env file and sets env vars (only if not already set).
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`) {
			val = strings.Trim(val, `"`)
		} else if strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") {
			val = strings.Trim(val, "'")
		}
		if key != "" && os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
}
