package retrieval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wattlelabs/advisord/internal/retrieval"
)

func TestSimilarityPercent(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     float64
	}{
		{"identical vectors", 0, 100},
		{"quarter distance", 0.5, 75},
		{"half distance", 1.0, 50},
		{"maximum distance", 2.0, 0},
		{"beyond maximum clamps to zero", 3.5, 0},
		{"rounds to two decimals", 0.123456, 93.83},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, retrieval.SimilarityPercent(tt.distance), 1e-9)
		})
	}
}

func TestSimilarityPercent_Monotonic(t *testing.T) {
	prev := retrieval.SimilarityPercent(0)
	for _, d := range []float64{0.1, 0.5, 0.9, 1.3, 1.7, 2.0} {
		cur := retrieval.SimilarityPercent(d)
		assert.LessOrEqual(t, cur, prev, "similarity must not increase with distance %v", d)
		prev = cur
	}
}
