// Package config loads the askdoc configuration file.
// Configuration lives in a TOML file, ~/.askdoc/config.toml by
// default. A missing file is not an error; every field has a default.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Embedding backend names accepted in the provider field.
const (
	ProviderHashing = "hashing"
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
)

// Storage backend names accepted in the backend field.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the full askdoc configuration.
type Config struct {
	Embedding EmbeddingConfig `toml:"embedding"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Cache     CacheConfig     `toml:"cache"`
	Engine    EngineConfig    `toml:"engine"`
	Storage   StorageConfig   `toml:"storage"`
}

// EmbeddingConfig selects and tunes the embedding backend.
type EmbeddingConfig struct {
	// Provider is hashing, ollama or openai.
	Provider string `toml:"provider"`

	// Model is the embedding model name (ollama and openai).
	Model string `toml:"model"`

	// BaseURL overrides the backend API endpoint.
	BaseURL string `toml:"base_url"`

	// APIKey authenticates openai requests. The OPENAI_API_KEY
	// environment variable takes precedence.
	APIKey string `toml:"api_key"`

	// Dimensions is the embedding vector size.
	Dimensions int `toml:"dimensions"`

	// RequestsPerSecond throttles openai API calls.
	RequestsPerSecond float64 `toml:"requests_per_second"`

	// BurstSize is the openai rate limiter burst allowance.
	BurstSize int `toml:"burst_size"`
}

// ChunkingConfig tunes the text splitter.
type ChunkingConfig struct {
	MaxSize int `toml:"max_size"`
	Overlap int `toml:"overlap"`
}

// CacheConfig tunes the embedding cache.
type CacheConfig struct {
	Capacity int `toml:"capacity"`
}

// EngineConfig tunes the answering pipeline.
type EngineConfig struct {
	// MaxChunks is the default retrieval depth for questions.
	MaxChunks int `toml:"max_chunks"`

	// BatchSize is the embedding request batch size during ingestion.
	BatchSize int `toml:"batch_size"`

	// EmbedWorkers bounds concurrent embedding batches.
	EmbedWorkers int `toml:"embed_workers"`
}

// StorageConfig selects where indexed records live.
type StorageConfig struct {
	// Backend is sqlite or memory.
	Backend string `toml:"backend"`

	// DataDir holds the database and document metadata.
	DataDir string `toml:"data_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Embedding: EmbeddingConfig{
			Provider:   ProviderHashing,
			Dimensions: 256,
		},
		Chunking: ChunkingConfig{
			MaxSize: 1000,
			Overlap: 200,
		},
		Cache: CacheConfig{
			Capacity: 1000,
		},
		Engine: EngineConfig{
			MaxChunks:    5,
			BatchSize:    32,
			EmbedWorkers: 4,
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
		},
	}
}

// DefaultPath returns ~/.askdoc/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".askdoc", "config.toml"), nil
}

// Load reads the configuration at path, layering it over the
// defaults. An empty path means the default location; a missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Embedding.APIKey = key
	}

	return cfg, nil
}

// DataDir resolves the storage directory, defaulting to ~/.askdoc/data.
func (c Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".askdoc", "data"), nil
}
