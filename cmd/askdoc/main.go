// Command askdoc indexes documents into a local vector store and
// answers questions about them.
package main

import (
	"fmt"
	"os"

	"github.com/lumina-labs/askdoc-cli/internal/adapters/driven/embedding/hashing"
	"github.com/lumina-labs/askdoc-cli/internal/adapters/driven/embedding/ollama"
	"github.com/lumina-labs/askdoc-cli/internal/adapters/driven/embedding/openai"
	"github.com/lumina-labs/askdoc-cli/internal/adapters/driven/extractor/plaintext"
	"github.com/lumina-labs/askdoc-cli/internal/adapters/driven/metadata/file"
	"github.com/lumina-labs/askdoc-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/lumina-labs/askdoc-cli/internal/adapters/driven/vectorstore/sqlite"
	"github.com/lumina-labs/askdoc-cli/internal/adapters/driving/cli"
	"github.com/lumina-labs/askdoc-cli/internal/chunker"
	"github.com/lumina-labs/askdoc-cli/internal/config"
	"github.com/lumina-labs/askdoc-cli/internal/core/ports/driven"
	"github.com/lumina-labs/askdoc-cli/internal/core/ports/driving"
	"github.com/lumina-labs/askdoc-cli/internal/core/services"
	"github.com/lumina-labs/askdoc-cli/internal/embedcache"
)

// version is set at build time with -ldflags.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetServiceBuilder(buildServices)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildServices wires the engine from the configuration file.
func buildServices(configPath string) (driving.EngineService, driven.TextExtractor, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		return nil, nil, err
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve data dir: %w", err)
	}

	store, storePath, err := buildStore(cfg.Storage, dataDir, embedder.Dimensions())
	if err != nil {
		return nil, nil, err
	}

	metaStore, err := file.NewStore(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open metadata store: %w", err)
	}

	engine := services.NewEngineService(
		chunker.New(
			chunker.WithMaxSize(cfg.Chunking.MaxSize),
			chunker.WithOverlap(cfg.Chunking.Overlap),
		),
		embedcache.New(cfg.Cache.Capacity),
		embedder,
		store,
		metaStore,
		services.EngineConfig{
			MaxChunks:    cfg.Engine.MaxChunks,
			BatchSize:    cfg.Engine.BatchSize,
			EmbedWorkers: cfg.Engine.EmbedWorkers,
			StorePath:    storePath,
		},
	)

	return engine, plaintext.New(), nil
}

func buildEmbedder(cfg config.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case config.ProviderHashing, "":
		return hashing.NewEmbeddingService(cfg.Dimensions), nil

	case config.ProviderOllama:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil

	case config.ProviderOpenAI:
		return openai.NewEmbeddingService(openai.Config{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			RequestsPerSecond: cfg.RequestsPerSecond,
			BurstSize:         cfg.BurstSize,
		})

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

func buildStore(cfg config.StorageConfig, dataDir string, dimensions int) (driven.VectorStore, string, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		store, err := sqlite.NewStore(dataDir, dimensions)
		if err != nil {
			return nil, "", fmt.Errorf("open vector store: %w", err)
		}
		return store, dataDir, nil

	case config.BackendMemory:
		store, err := memory.NewStore(dimensions)
		if err != nil {
			return nil, "", fmt.Errorf("create vector store: %w", err)
		}
		return store, "", nil

	default:
		return nil, "", fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
