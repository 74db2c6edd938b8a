package retrieval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wattlelabs/advisord/internal/retrieval"
)

func TestExpandQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "expands oop",
			query: "oop basics",
			want:  "object-oriented programming basics",
		},
		{
			name:  "case insensitive",
			query: "OOP Basics",
			want:  "object-oriented programming Basics",
		},
		{
			name:  "multiple abbreviations",
			query: "db and ml units",
			want:  "database and machine learning units",
		},
		{
			name:  "whole words only",
			query: "feedback on my assignment",
			want:  "feedback on my assignment",
		},
		{
			name:  "abbreviation at end",
			query: "units about ai",
			want:  "units about artificial intelligence",
		},
		{
			name:  "no abbreviations",
			query: "software engineering fundamentals",
			want:  "software engineering fundamentals",
		},
		{
			name:  "empty query",
			query: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retrieval.ExpandQuery(tt.query))
		})
	}
}
