// Package vectorstore defines the interface for vector storage operations.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmbeddingFailed indicates embedding generation failure.
	// Callers may retry the whole batch; identity makes re-submission safe.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrStoreUnavailable indicates the backing store could not be
	// reached or written. Retryable for the same reason as above.
	ErrStoreUnavailable = errors.New("vector store unavailable")
)

// Embedder generates vector embeddings from text.
//
// Embeddings are dense numerical representations that capture semantic
// meaning, enabling similarity search. Implementations can use local ONNX
// models (FastEmbed) or OpenAI-compatible HTTP endpoints.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	// Returns a slice of embeddings (one per input text) or an error.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for vector storage operations.
//
// The store persists documents keyed by their content-addressed ID and
// supports filtered similarity search. Implementations own the discipline
// for concurrent writers; callers may issue AddDocuments and Search calls
// from multiple goroutines.
type Store interface {
	// AddDocuments upserts documents into the store.
	//
	// Documents are embedded and stored with their metadata. Adding a
	// document whose ID already exists overwrites the stored entry,
	// never creating a duplicate.
	//
	// Returns the IDs of added documents and an error if the operation fails.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Search performs similarity search, returning at most k results
	// ordered by ascending distance.
	//
	// When filters is non-empty, only documents whose metadata matches
	// ALL filter key/value pairs are eligible.
	Search(ctx context.Context, query string, k int, filters map[string]string) ([]SearchResult, error)

	// Count returns the number of documents currently persisted.
	Count(ctx context.Context) (int, error)

	// Close closes the store and releases resources.
	Close() error
}
