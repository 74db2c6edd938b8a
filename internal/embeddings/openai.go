package embeddings

import (
	"context"
	"fmt"

	lcembeddings "github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIConfig holds configuration for the OpenAI-compatible provider.
//
// The same client works for both the OpenAI embedding API and local TEI
// (Text Embeddings Inference) servers, which expose an OpenAI-compatible
// endpoint.
type OpenAIConfig struct {
	// BaseURL is the base URL for the embedding API.
	// For TEI: http://localhost:8080/v1
	// For OpenAI: https://api.openai.com/v1
	BaseURL string

	// Model is the embedding model to use.
	// For TEI: BAAI/bge-small-en-v1.5
	// For OpenAI: text-embedding-3-small, text-embedding-3-large
	Model string

	// APIKey is the API key (required for OpenAI, optional for TEI).
	APIKey string
}

// Validate validates the configuration.
func (c OpenAIConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	return nil
}

// OpenAIProvider generates embeddings via an OpenAI-compatible HTTP endpoint.
type OpenAIProvider struct {
	embedder  *lcembeddings.EmbedderImpl
	config    OpenAIConfig
	dimension int
}

// openAIModelDimensions maps known models to their embedding dimensions.
var openAIModelDimensions = map[string]int{
	"text-embedding-3-small":                 1536,
	"text-embedding-3-large":                 3072,
	"text-embedding-ada-002":                 1536,
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-base-en-v1.5":                  768,
	"sentence-transformers/all-MiniLM-L6-v2": 384,
}

// NewOpenAIProvider creates a new OpenAI-compatible embedding provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		// langchaingo requires a token; use placeholder for TEI.
		apiKey = "placeholder"
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	embedder, err := lcembeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	dimension, ok := openAIModelDimensions[cfg.Model]
	if !ok {
		dimension = 384
	}

	return &OpenAIProvider{
		embedder:  embedder,
		config:    cfg,
		dimension: dimension,
	}, nil
}

// EmbedDocuments generates embeddings for multiple texts.
func (p *OpenAIProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	return vectors, nil
}

// EmbedQuery generates an embedding for a single query.
func (p *OpenAIProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}

	vector, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	return vector, nil
}

// Dimension returns the embedding dimension for the configured model.
func (p *OpenAIProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op for HTTP-backed providers.
func (p *OpenAIProvider) Close() error {
	return nil
}

// Ensure OpenAIProvider implements Provider.
var _ Provider = (*OpenAIProvider)(nil)
