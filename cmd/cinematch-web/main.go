package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/popkes/cinematch/internal/config"
	"github.com/popkes/cinematch/internal/llm"
	"github.com/popkes/cinematch/internal/server"
	"github.com/popkes/cinematch/internal/storage"
	"github.com/popkes/cinematch/internal/storage/postgres"
	"github.com/popkes/cinematch/internal/storage/sqlite"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	providerCfg := llm.ProviderConfig{
		Provider:       cfg.LLM.Provider,
		APIKey:         cfg.LLM.OpenAIAPIKey,
		BaseURL:        cfg.LLM.OpenAIBaseURL,
		ChatModel:      cfg.LLM.ChatModel,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
	}
	embedder, err := llm.NewEmbeddingGenerator(providerCfg)
	if err != nil {
		log.Fatalf("Failed to create embedding provider: %v", err)
	}
	generator, err := llm.NewTextGenerator(providerCfg)
	if err != nil {
		log.Fatalf("Failed to create text provider: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, hub, err := server.Start(ctx, cfg, store, embedder, generator)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("CineMatch API running at http://%s (store: %s, dim: %d)",
		addr, cfg.Storage.StorageEngine, cfg.Storage.EmbeddingDim)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	hub.Stop()
}

// openStore builds the configured catalog store backend.
func openStore(cfg *config.Config) (storage.CatalogStore, error) {
	switch cfg.Storage.StorageEngine {
	case "postgres":
		return postgres.NewCatalogStore(cfg.Storage.PostgresDSN, cfg.Storage.EmbeddingDim)
	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, err
		}
		return sqlite.NewCatalogStore(cfg.Storage.DataPath+"/cinematch.db", cfg.Storage.EmbeddingDim)
	}
}
