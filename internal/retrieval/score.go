package retrieval

import "math"

// maxDistance is the clamp for distance-to-relevance normalization.
// Cosine distance tops out at 2.0; anything at or beyond maps to 0%.
const maxDistance = 2.0

// SimilarityPercent converts a raw distance into a bounded [0, 100]
// relevance score:
//
//	similarity = round(max(0, 100 * (1 - min(distance, 2.0) / 2.0)), 2)
//
// Distance 0 maps to 100%, distance >= 2.0 maps to 0%. Reported scores
// must stay comparable across deployments, so the formula is exact.
func SimilarityPercent(distance float64) float64 {
	clamped := math.Min(distance, maxDistance)
	similarity := math.Max(0, 100*(1-clamped/maxDistance))
	return math.Round(similarity*100) / 100
}

// roundDistance rounds a raw distance to 4 decimal places for reporting.
func roundDistance(distance float64) float64 {
	return math.Round(distance*10000) / 10000
}
