package semantic

import (
	"context"
	"testing"

	"rlmengine/internal/embedclient"
)

func TestCosineSimilarityIdenticalVectors(t *testing.T) {
	v := []float32{1, 2, 3}
	sim := CosineSimilarity(v, v)
	if sim < 0.999 {
		t.Fatalf("expected identical vectors to have similarity ~1, got %f", sim)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	sim := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if sim > 1e-9 || sim < -1e-9 {
		t.Fatalf("expected orthogonal vectors to have similarity ~0, got %f", sim)
	}
}

func TestCosineSimilarityMismatchedLength(t *testing.T) {
	if CosineSimilarity([]float32{1, 2}, []float32{1}) != 0 {
		t.Fatalf("expected mismatched lengths to yield 0")
	}
}

func TestRankPrecomputedOrdersByDescendingSimilarity(t *testing.T) {
	query := []float32{1, 0, 0}
	docs := []Embedded{
		{ID: "far", Vector: []float32{0, 1, 0}},
		{ID: "close", Vector: []float32{0.9, 0.1, 0}},
	}
	ranked := RankPrecomputed(query, docs)
	if ranked[0].ID != "close" {
		t.Fatalf("expected 'close' to rank first, got %q", ranked[0].ID)
	}
}

func TestRankOnTheFlyWithHashStub(t *testing.T) {
	client := embedclient.NewHashStub(32)
	docs := []Document{
		{ID: "a", Text: "pricing tiers and plans"},
		{ID: "b", Text: "unrelated weather forecast"},
	}
	ranked, err := RankOnTheFly(context.Background(), client, "pricing tiers", docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked docs, got %d", len(ranked))
	}
	if ranked[0].ID != "a" {
		t.Fatalf("expected 'a' (textually closer) to rank first, got %q", ranked[0].ID)
	}
}
