// Package semantic scores documentation sections against a query using
// cosine similarity over embedding vectors, either precomputed (stored
// alongside a section) or generated on the fly via an embedclient.Client.
package semantic

import (
	"context"
	"fmt"
	"math"
	"sort"

	"rlmengine/internal/embedclient"
)

// Embedded pairs a document ID with its precomputed embedding vector.
type Embedded struct {
	ID     string
	Vector []float32
}

// Scored is a document ID with its cosine-similarity score against a
// query vector, in [-1, 1].
type Scored struct {
	ID    string
	Score float64
}

// CosineSimilarity returns the cosine similarity of two equal-length
// vectors, or 0 if either is the zero vector or the lengths mismatch.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RankPrecomputed scores a set of precomputed document vectors against a
// query vector and returns them sorted by descending similarity. This is
// the hot path for projects with pgvector-backed chunk storage, where
// embeddings were computed at index time.
func RankPrecomputed(queryVector []float32, docs []Embedded) []Scored {
	out := make([]Scored, len(docs))
	for i, d := range docs {
		out[i] = Scored{ID: d.ID, Score: CosineSimilarity(queryVector, d.Vector)}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Document is the minimal shape needed to embed a section's text
// on the fly, for projects too small to justify a precomputed vector
// store.
type Document struct {
	ID   string
	Text string
}

// RankOnTheFly embeds the query and every document via client, then ranks
// by cosine similarity. Intended for small corpora or projects without a
// chunk store; RankPrecomputed should be preferred whenever vectors are
// already persisted.
func RankOnTheFly(ctx context.Context, client embedclient.Client, query string, docs []Document) ([]Scored, error) {
	queryVec, err := client.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("semantic: embed query: %w", err)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vectors, err := client.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("semantic: embed documents: %w", err)
	}

	embedded := make([]Embedded, len(docs))
	for i, d := range docs {
		embedded[i] = Embedded{ID: d.ID, Vector: vectors[i]}
	}
	return RankPrecomputed(queryVec, embedded), nil
}
