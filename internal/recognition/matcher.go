package recognition

import (
	"math"

	"github.com/stemsi/presensi-backend/internal/model"
)

// EmbeddingDim is the fixed dimension of every face embedding
// (InsightFace buffalo_l).
const EmbeddingDim = 512

// distanceEpsilon stabilizes the cosine denominator against
// near-zero-norm vectors.
const distanceEpsilon = 1e-8

// Match is an accepted nearest-neighbor candidate.
type Match struct {
	StudentID int
	GroupID   *int
	Distance  float64
}

// CosineDistance returns 1 − cos(a, b): 0 for identical direction, 2 for
// opposite. Degenerate (near-zero-norm) inputs land near 1 instead of
// dividing by zero.
func CosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)+distanceEpsilon)
}

// BestMatch linearly scans the identity pool for the enrolled embedding
// closest to query and accepts it when its cosine distance is within
// threshold. Ties keep the first candidate in pool order, so callers
// should supply the pool in a stable order. Returns false on an empty
// pool or when the best candidate misses the threshold.
//
// O(N·D) per call — fine for the enrolled populations this serves. A
// future redesign could swap in an ANN index once pools grow past that.
func BestMatch(query []float32, pool []model.IdentityEmbedding, threshold float64) (Match, bool) {
	best := Match{Distance: math.Inf(1)}
	found := false

	for _, cand := range pool {
		d := CosineDistance(query, cand.Embedding)
		if d < best.Distance {
			best = Match{StudentID: cand.StudentID, GroupID: cand.GroupID, Distance: d}
			found = true
		}
	}

	if !found || best.Distance > threshold {
		return Match{}, false
	}
	return best, true
}
