// Command inquira-import bulk-loads a directory of PDF, text, and
// markdown files into a collection, bypassing the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/inquira/inquira/internal/config"
	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/loader"
	logpkg "github.com/inquira/inquira/internal/logger"
	"github.com/inquira/inquira/internal/metrics"
	"github.com/inquira/inquira/internal/prompt"
	"github.com/inquira/inquira/internal/provider/registry"
	ingestuc "github.com/inquira/inquira/internal/usecase/ingest"
	"github.com/inquira/inquira/internal/vectorstore"
)

func main() {
	var (
		dir          = flag.String("dir", "", "directory with .pdf/.txt/.md files (required)")
		collection   = flag.String("collection", "", "target collection (required)")
		providerName = flag.String("provider", "ollama", "embedding provider")
		token        = flag.String("token", "", "provider API token (falls back to config)")
		separator    = flag.String("separator", "", "segment separator (default: blank line)")
	)
	flag.Parse()

	if *dir == "" || *collection == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	p, err := domain.ParseProvider(*providerName)
	if err != nil {
		logger.Fatal("Unknown provider", zap.String("provider", *providerName))
	}

	docs, err := loader.LoadDirectory(*dir, *separator)
	if err != nil {
		logger.Fatal("Failed to load documents", zap.Error(err))
	}
	logger.Info("Documents loaded", zap.String("dir", *dir), zap.Int("segments", len(docs)))

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

	metrics.RegisterProviderMetrics()

	renderer, err := prompt.NewRenderer()
	if err != nil {
		logger.Fatal("Failed to parse prompt templates", zap.Error(err))
	}

	reg := registry.New(store, cfg.Providers, cfg.VectorStore.KeyPrefix, renderer, logger)
	ingestSvc := ingestuc.New(reg, cfg.APIKeys(), logger)

	n, err := ingestSvc.IngestDocuments(ctx, p, *token, *collection, docs)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}

	logger.Info("Ingestion complete",
		zap.String("collection", *collection),
		zap.String("provider", string(p)),
		zap.Int("stored", n),
	)
}
