package retrieval_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wattlelabs/advisord/internal/retrieval"
)

func TestDocumentID_Deterministic(t *testing.T) {
	id1 := retrieval.DocumentID("COMP1000", retrieval.TypeDescription, "Intro to programming")
	id2 := retrieval.DocumentID("COMP1000", retrieval.TypeDescription, "Intro to programming")

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64) // sha256 hex
}

func TestDocumentID_DistinguishesInputs(t *testing.T) {
	base := retrieval.DocumentID("COMP1000", retrieval.TypeDescription, "Intro to programming")

	tests := []struct {
		name    string
		key     string
		docType string
		content string
	}{
		{"different key", "COMP2000", retrieval.TypeDescription, "Intro to programming"},
		{"different type", "COMP1000", retrieval.TypeLearningOutcome, "Intro to programming"},
		{"different content", "COMP1000", retrieval.TypeDescription, "Advanced programming"},
		{"empty key", "", retrieval.TypeDescription, "Intro to programming"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, retrieval.DocumentID(tt.key, tt.docType, tt.content))
		})
	}
}

func TestDocumentID_UsesContentPrefixOnly(t *testing.T) {
	prefix := strings.Repeat("a", 100)

	id1 := retrieval.DocumentID("COMP1000", retrieval.TypeDescription, prefix+"tail one")
	id2 := retrieval.DocumentID("COMP1000", retrieval.TypeDescription, prefix+"different tail")

	// Content past the prefix does not contribute to identity.
	assert.Equal(t, id1, id2)

	id3 := retrieval.DocumentID("COMP1000", retrieval.TypeDescription, strings.Repeat("b", 100))
	assert.NotEqual(t, id1, id3)
}
