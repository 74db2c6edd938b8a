// Package config provides configuration loading for advisord.
package config

import (
	"fmt"

	"github.com/wattlelabs/advisord/internal/telemetry"
)

// Config is the root configuration for advisord.
type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	Store      StoreConfig      `koanf:"store"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Sources    SourcesConfig    `koanf:"sources"`
	Retrieval  RetrievalConfig  `koanf:"retrieval"`
	Server     ServerConfig     `koanf:"server"`
	Telemetry  telemetry.Config `koanf:"telemetry"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is the output encoding: json or console.
	Format string `koanf:"format"`
}

// StoreConfig controls the persistent vector store.
type StoreConfig struct {
	// Path is the directory for vector store persistence. This is a
	// fixed location distinct from the relational unit catalog.
	Path string `koanf:"path"`
	// Collection is the collection holding the advising corpus.
	Collection string `koanf:"collection"`
	// VectorSize is the embedding dimension; must match the model.
	VectorSize int `koanf:"vector_size"`
	// Compress enables gzip compression of persisted vectors.
	Compress bool `koanf:"compress"`
}

// EmbeddingsConfig controls the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "fastembed" (local ONNX) or "openai" (HTTP endpoint).
	Provider string `koanf:"provider"`
	// Model is the embedding model name.
	Model string `koanf:"model"`
	// BaseURL is the OpenAI-compatible endpoint (openai provider only).
	BaseURL string `koanf:"base_url"`
	// APIKey is the endpoint API key (openai provider only).
	APIKey string `koanf:"api_key"`
	// CacheDir caches downloaded model files (fastembed only).
	CacheDir string `koanf:"cache_dir"`
}

// SourcesConfig locates the ingestion sources.
type SourcesConfig struct {
	// UnitsDB is the SQLite unit catalog path.
	UnitsDB string `koanf:"units_db"`
	// SkillsFile is the skills/roles JSON file path.
	SkillsFile string `koanf:"skills_file"`
	// MaterialsFile is the learning materials JSON file path.
	MaterialsFile string `koanf:"materials_file"`
}

// RetrievalConfig tunes the retrieval pipeline.
type RetrievalConfig struct {
	// DefaultK is the result count when a query omits k.
	DefaultK int `koanf:"default_k"`
	// MaxParallel bounds concurrent blocking store calls.
	MaxParallel int `koanf:"max_parallel"`
	// MaxRetries bounds retry attempts for a failed batch upsert.
	MaxRetries int `koanf:"max_retries"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// applyDefaults fills unset fields with defaults.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "~/.local/share/advisord/vectorstore"
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "advisor_knowledge"
	}
	if cfg.Store.VectorSize == 0 {
		cfg.Store.VectorSize = 384
	}
	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "fastembed"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if cfg.Sources.UnitsDB == "" {
		cfg.Sources.UnitsDB = "~/.local/share/advisord/units.db"
	}
	if cfg.Sources.SkillsFile == "" {
		cfg.Sources.SkillsFile = "data/skills_roles.json"
	}
	if cfg.Sources.MaterialsFile == "" {
		cfg.Sources.MaterialsFile = "data/learning_materials.json"
	}
	if cfg.Retrieval.DefaultK == 0 {
		cfg.Retrieval.DefaultK = 5
	}
	if cfg.Retrieval.MaxParallel == 0 {
		cfg.Retrieval.MaxParallel = 4
	}
	if cfg.Retrieval.MaxRetries == 0 {
		cfg.Retrieval.MaxRetries = 3
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8088
	}
	cfg.Telemetry.ApplyDefaults()
}

// Validate checks for invalid values.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}

	if c.Store.VectorSize <= 0 {
		return fmt.Errorf("store vector_size must be positive, got %d", c.Store.VectorSize)
	}

	switch c.Embeddings.Provider {
	case "fastembed", "openai":
	default:
		return fmt.Errorf("invalid embeddings provider %q", c.Embeddings.Provider)
	}

	if c.Embeddings.Provider == "openai" && c.Embeddings.BaseURL == "" {
		return fmt.Errorf("embeddings base_url required for openai provider")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	if c.Retrieval.MaxParallel < 0 {
		return fmt.Errorf("retrieval max_parallel cannot be negative")
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}
