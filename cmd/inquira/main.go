package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/inquira/inquira/internal/config"
	logpkg "github.com/inquira/inquira/internal/logger"
	"github.com/inquira/inquira/internal/metrics"
	"github.com/inquira/inquira/internal/prompt"
	"github.com/inquira/inquira/internal/provider/registry"
	chiTransport "github.com/inquira/inquira/internal/transport/chi"
	explainuc "github.com/inquira/inquira/internal/usecase/explain"
	ingestuc "github.com/inquira/inquira/internal/usecase/ingest"
	qauc "github.com/inquira/inquira/internal/usecase/qa"
	searchuc "github.com/inquira/inquira/internal/usecase/search"
	"github.com/inquira/inquira/internal/vectorstore"
	"github.com/inquira/inquira/internal/version"
)

func main() {
	// .env is optional, config files carry the defaults
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting inquira API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("redis_addrs", cfg.VectorStore.Addrs),
	)

	store, err := vectorstore.NewClient(vectorstore.Config{
		Addrs:    cfg.VectorStore.Addrs,
		Password: cfg.VectorStore.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create vector store client", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.VectorStore.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}
	logger.Info("Connected to vector store")

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	renderer, err := prompt.NewRenderer()
	if err != nil {
		logger.Fatal("Failed to parse prompt templates", zap.Error(err))
	}

	// Composition root
	reg := registry.New(store, cfg.Providers, cfg.VectorStore.KeyPrefix, renderer, logger)
	keys := cfg.APIKeys()

	ingestSvc := ingestuc.New(reg, keys, logger)
	searchSvc := searchuc.New(reg, keys, logger)
	qaSvc := qauc.New(reg, renderer, keys, cfg.QA.MaxTokens, cfg.QA.SummaryConcurrency, logger)
	explainSvc := explainuc.New(reg, renderer, keys, logger)

	server := chiTransport.NewServer(ingestSvc, searchSvc, qaSvc, explainSvc, store, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
