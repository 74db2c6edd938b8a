package retrieval

import (
	"crypto/sha256"
	"encoding/hex"
)

// idContentPrefixLen bounds how much content feeds the identity hash.
// Long documents only differ meaningfully in their head; keeping the
// prefix short makes re-hashing unchanged records cheap.
const idContentPrefixLen = 100

// DocumentID derives the content-addressed identifier for a document.
//
// It is a pure function of the primary key (unit code, or empty for
// global entries like skills), the document type, and the leading bytes
// of the content. Identical logical content always yields the same ID,
// which is what makes re-ingestion idempotent: the vector store treats
// an add with an existing ID as an overwrite, never a duplicate.
func DocumentID(primaryKey, docType, content string) string {
	if len(content) > idContentPrefixLen {
		content = content[:idContentPrefixLen]
	}
	sum := sha256.Sum256([]byte(primaryKey + ":" + docType + ":" + content))
	return hex.EncodeToString(sum[:])
}

// contentHash hashes full document content for query-time dedup.
func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
