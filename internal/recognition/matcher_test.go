package recognition

import (
	"math"
	"testing"

	"github.com/stemsi/presensi-backend/internal/model"
)

const tolerance = 1e-6

func unitVec(dim, axis int) []float32 {
	v := make([]float32, dim)
	v[axis] = 1
	return v
}

func TestCosineDistance_Identical(t *testing.T) {
	a := []float32{0.5, 0.5, 0.5, 0.5}
	if d := CosineDistance(a, a); math.Abs(d) > 1e-4 {
		t.Errorf("expected ~0 for identical vectors, got %f", d)
	}
}

func TestCosineDistance_Orthogonal(t *testing.T) {
	a := unitVec(4, 0)
	b := unitVec(4, 1)
	if d := CosineDistance(a, b); math.Abs(d-1) > tolerance {
		t.Errorf("expected ~1 for orthogonal vectors, got %f", d)
	}
}

func TestCosineDistance_Opposite(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{-1, 0}
	if d := CosineDistance(a, b); math.Abs(d-2) > 1e-4 {
		t.Errorf("expected ~2 for opposite vectors, got %f", d)
	}
}

func TestCosineDistance_Symmetric(t *testing.T) {
	a := []float32{0.2, -0.7, 0.1, 0.4}
	b := []float32{-0.3, 0.9, 0.5, 0.05}
	if d1, d2 := CosineDistance(a, b), CosineDistance(b, a); math.Abs(d1-d2) > tolerance {
		t.Errorf("distance not symmetric: %f vs %f", d1, d2)
	}
}

func TestCosineDistance_ZeroVector(t *testing.T) {
	a := make([]float32, 4)
	b := unitVec(4, 0)
	d := CosineDistance(a, b)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		t.Errorf("expected finite distance for zero vector, got %f", d)
	}
}

func TestBestMatch_EmptyPool(t *testing.T) {
	if _, ok := BestMatch(unitVec(4, 0), nil, 2); ok {
		t.Error("expected no match on empty pool")
	}
}

func TestBestMatch_SelfMatch(t *testing.T) {
	q := []float32{0.1, 0.9, -0.2, 0.3}
	pool := []model.IdentityEmbedding{
		{StudentID: 1, Embedding: unitVec(4, 2)},
		{StudentID: 2, Embedding: q},
	}

	m, ok := BestMatch(q, pool, 0.38)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.StudentID != 2 {
		t.Errorf("expected student 2, got %d", m.StudentID)
	}
	if math.Abs(m.Distance) > 1e-4 {
		t.Errorf("expected distance ~0, got %f", m.Distance)
	}
}

func TestBestMatch_ThresholdRejects(t *testing.T) {
	// Orthogonal vector: distance ~1, well above the 0.38 cutoff.
	pool := []model.IdentityEmbedding{{StudentID: 1, Embedding: unitVec(4, 1)}}
	if _, ok := BestMatch(unitVec(4, 0), pool, 0.38); ok {
		t.Error("expected rejection above threshold")
	}
}

func TestBestMatch_ThresholdBoundary(t *testing.T) {
	// Distance exactly at the threshold is still accepted.
	pool := []model.IdentityEmbedding{{StudentID: 1, Embedding: unitVec(4, 1)}}
	m, ok := BestMatch(unitVec(4, 0), pool, 1.0)
	if !ok {
		t.Fatal("expected acceptance at threshold boundary")
	}
	if m.StudentID != 1 {
		t.Errorf("expected student 1, got %d", m.StudentID)
	}
}

func TestBestMatch_PicksClosest(t *testing.T) {
	q := unitVec(4, 0)
	near := []float32{0.9, 0.1, 0, 0}
	far := []float32{0.5, 0.5, 0.5, 0.5}
	pool := []model.IdentityEmbedding{
		{StudentID: 1, Embedding: far},
		{StudentID: 2, Embedding: near},
	}

	m, ok := BestMatch(q, pool, 2)
	if !ok || m.StudentID != 2 {
		t.Errorf("expected closest candidate (student 2), got %+v ok=%v", m, ok)
	}
}

func TestBestMatch_TieKeepsFirst(t *testing.T) {
	q := unitVec(4, 0)
	same := []float32{0, 1, 0, 0}
	pool := []model.IdentityEmbedding{
		{StudentID: 7, Embedding: same},
		{StudentID: 8, Embedding: same},
	}

	m, ok := BestMatch(q, pool, 2)
	if !ok || m.StudentID != 7 {
		t.Errorf("expected first candidate on tie, got %+v ok=%v", m, ok)
	}
}

func TestBestMatch_Deterministic(t *testing.T) {
	q := []float32{0.3, 0.3, 0.3, 0.1}
	pool := []model.IdentityEmbedding{
		{StudentID: 1, Embedding: []float32{0.31, 0.29, 0.3, 0.12}},
		{StudentID: 2, Embedding: []float32{0.29, 0.31, 0.28, 0.09}},
		{StudentID: 3, Embedding: []float32{0.1, 0.8, 0.1, 0.1}},
	}

	first, ok := BestMatch(q, pool, 2)
	if !ok {
		t.Fatal("expected a match")
	}
	for i := 0; i < 10; i++ {
		again, ok := BestMatch(q, pool, 2)
		if !ok || again != first {
			t.Fatalf("non-deterministic result on run %d: %+v vs %+v", i, again, first)
		}
	}
}
