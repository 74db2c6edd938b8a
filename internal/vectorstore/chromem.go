// Package vectorstore provides vector storage implementations.
package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("advisord.vectorstore.chromem")

// ChromemConfig holds configuration for the chromem-go embedded vector database.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	// Default: "~/.local/share/advisord/vectorstore"
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// Collection is the collection name holding the advising corpus.
	// Default: "advisor_knowledge"
	Collection string

	// VectorSize is the expected embedding dimension.
	// Must match the embedder's output dimension.
	// Default: 384 (bge-small / all-MiniLM-L6-v2 class models)
	VectorSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "~/.local/share/advisord/vectorstore"
	}
	if c.Collection == "" {
		c.Collection = "advisor_knowledge"
	}
	if c.VectorSize == 0 {
		c.VectorSize = 384
	}
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	if c.Collection == "" {
		return fmt.Errorf("%w: collection name required", ErrInvalidConfig)
	}
	return nil
}

// ChromemStore implements the Store interface using chromem-go.
//
// chromem-go is an embeddable vector database with zero third-party
// dependencies. It provides in-memory storage with automatic persistence
// to gob files, so no external database service is needed. Document adds
// with an existing ID overwrite the stored entry, which gives the
// idempotent-upsert behavior the ingestion pipeline relies on.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   Embedder
	config     ChromemConfig
	logger     *zap.Logger
}

// NewChromemStore creates a new ChromemStore with the given configuration.
func NewChromemStore(config ChromemConfig, embedder Embedder, logger *zap.Logger) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	expandedPath, err := expandPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}

	if err := os.MkdirAll(expandedPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", expandedPath, err)
	}

	db, err := chromem.NewPersistentDB(expandedPath, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("%w: creating chromem DB: %v", ErrStoreUnavailable, err)
	}

	store := &ChromemStore{
		db:       db,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}

	// Must pass an embedding function, not nil, because chromem-go sets
	// the default OpenAI embedder when nil is passed for persisted collections.
	collection, err := db.GetOrCreateCollection(config.Collection, nil, store.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("%w: getting/creating collection %s: %v", ErrStoreUnavailable, config.Collection, err)
	}
	store.collection = collection

	logger.Info("ChromemStore initialized",
		zap.String("path", expandedPath),
		zap.Bool("compress", config.Compress),
		zap.Int("vector_size", config.VectorSize),
		zap.String("collection", config.Collection),
	)

	return store, nil
}

// expandPath expands ~ to home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// embeddingFunc creates a chromem.EmbeddingFunc from our Embedder interface.
func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

// AddDocuments upserts documents into the store.
func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.AddDocuments")
	defer span.End()

	span.SetAttributes(attribute.Int("document_count", len(docs)))

	if len(docs) == 0 {
		return nil, ErrEmptyDocuments
	}

	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return nil, fmt.Errorf("%w: document at index %d has empty ID", ErrInvalidConfig, i)
		}
		ids[i] = doc.ID
		texts[i] = doc.Content
	}

	// Generate embeddings in batch.
	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			Embedding: embeddings[i],
		}
	}

	// Concurrency of 1 since we already have embeddings.
	if err := s.collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: adding documents: %v", ErrStoreUnavailable, err)
	}

	span.SetAttributes(attribute.Int("documents_added", len(ids)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("added documents to chromem",
		zap.String("collection", s.config.Collection),
		zap.Int("count", len(docs)),
	)

	return ids, nil
}

// Search performs similarity search with optional metadata filters.
func (s *ChromemStore) Search(ctx context.Context, query string, k int, filters map[string]string) ([]SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Search")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", s.config.Collection),
		attribute.Int("k", k),
	)

	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	// chromem requires nResults <= doc count.
	docCount := s.collection.Count()
	if docCount == 0 {
		return []SearchResult{}, nil
	}
	if k > docCount {
		k = docCount
	}

	results, err := s.collection.Query(ctx, query, k, filters, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: querying collection %s: %v", ErrStoreUnavailable, s.config.Collection, err)
	}

	// chromem returns cosine similarity ordered descending; convert to
	// cosine distance (1 - similarity, range [0, 2]) ordered ascending.
	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			ID:       r.ID,
			Content:  r.Content,
			Distance: 1 - r.Similarity,
			Metadata: r.Metadata,
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(searchResults)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("searched chromem collection",
		zap.String("collection", s.config.Collection),
		zap.Int("k", k),
		zap.Int("results", len(searchResults)),
	)

	return searchResults, nil
}

// Count returns the number of documents in the collection.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Close closes the ChromemStore.
// chromem-go handles persistence automatically, no explicit flush needed.
func (s *ChromemStore) Close() error {
	s.logger.Info("chromem store closed")
	return nil
}

// Ensure ChromemStore implements Store interface.
var _ Store = (*ChromemStore)(nil)
