package vectorstore

// Document represents a document to be indexed in the vector store.
type Document struct {
	// ID is the content-addressed identifier for the document.
	// Adding a document whose ID already exists overwrites the stored
	// entry, so re-submission is idempotent.
	ID string

	// Content is the normalized text content of the document.
	Content string

	// Metadata contains key-value pairs for equality filtering.
	// Common keys: source, type, unit_code, skill_name, title.
	Metadata map[string]string
}

// SearchResult represents a single similarity search hit.
type SearchResult struct {
	// ID is the document identifier.
	ID string

	// Content is the document text content.
	Content string

	// Distance is the cosine distance from the query, in [0, 2].
	// Smaller means more relevant. Results are ordered ascending.
	Distance float32

	// Metadata contains the document metadata.
	Metadata map[string]string
}
