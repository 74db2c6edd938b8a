// Package embeddings provides embedding generation via multiple providers.
package embeddings

import (
	"errors"
	"fmt"

	"github.com/wattlelabs/advisord/internal/vectorstore"
)

var (
	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrEmbeddingFailed indicates the underlying model failed to
	// produce a vector.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")
)

// Provider is the interface for embedding providers.
type Provider interface {
	vectorstore.Embedder
	// Dimension returns the embedding dimension for the current model.
	Dimension() int
	// Close releases resources held by the provider.
	Close() error
}

// ProviderConfig holds configuration for creating an embedding provider.
type ProviderConfig struct {
	// Provider is the provider type: "fastembed" or "openai".
	Provider string
	// Model is the embedding model name.
	Model string
	// BaseURL is the OpenAI-compatible endpoint URL (openai provider only).
	// Works for both api.openai.com and local TEI servers.
	BaseURL string
	// APIKey is the API key (openai provider only; optional for TEI).
	APIKey string
	// CacheDir is the model cache directory (fastembed only).
	CacheDir string
}

// NewProvider creates an embedding provider based on the configuration.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "fastembed", "":
		p, err := NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Model,
			CacheDir: cfg.CacheDir,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
