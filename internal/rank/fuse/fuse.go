// Package fuse implements Reciprocal Rank Fusion over keyword and semantic
// rankings, and the graded score normalization used to present fused
// relevance as a human-readable 1-100 scale.
package fuse

import (
	"math"
	"sort"

	"rlmengine/internal/rank/constants"
)

// Ranked is one scored candidate, keyed by an opaque document ID.
type Ranked struct {
	ID    string
	Score float64
}

// RRF fuses a keyword ranking and a semantic ranking into a single ordered
// result set using Reciprocal Rank Fusion:
//
//	rrf(d) = kwWeight/(k+rank_kw(d)) + semWeight/(k+rank_sem(d))
//
// A document absent from one ranking is assigned a pessimistic rank of
// len(ranking)+1 in that ranking, so it still receives a small
// contribution from that ranking instead of being disqualified outright.
// It can outscore a document that is present in both rankings but ranked
// low in them.
func RRF(keywordRanking, semanticRanking []Ranked, kwWeight, semWeight float64) []Ranked {
	kwRank := rankOf(keywordRanking)
	semRank := rankOf(semanticRanking)

	pessimisticKW := len(keywordRanking) + 1
	pessimisticSem := len(semanticRanking) + 1

	ids := make(map[string]struct{})
	for _, r := range keywordRanking {
		ids[r.ID] = struct{}{}
	}
	for _, r := range semanticRanking {
		ids[r.ID] = struct{}{}
	}

	fused := make([]Ranked, 0, len(ids))
	for id := range ids {
		rk, ok := kwRank[id]
		if !ok {
			rk = pessimisticKW
		}
		rs, ok := semRank[id]
		if !ok {
			rs = pessimisticSem
		}
		score := kwWeight/(constants.RRFK+float64(rk)) + semWeight/(constants.RRFK+float64(rs))
		fused = append(fused, Ranked{ID: id, Score: score})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ID < fused[j].ID
	})
	return fused
}

func rankOf(ranking []Ranked) map[string]int {
	m := make(map[string]int, len(ranking))
	for i, r := range ranking {
		m[r.ID] = i + 1
	}
	return m
}

// NormalizeGraded rescales an already rank-ordered score list onto a
// graded 1-100 scale: rank 1 is always exactly 100; subsequent ranks decay
// by a blend of position (0.94^i) and relative raw-score magnitude, never
// dropping below 1 regardless of how small the raw score is.
func NormalizeGraded(ranked []Ranked) []Ranked {
	if len(ranked) == 0 {
		return nil
	}
	out := make([]Ranked, len(ranked))
	raw1 := ranked[0].Score
	for i, r := range ranked {
		if i == 0 {
			out[i] = Ranked{ID: r.ID, Score: 100}
			continue
		}
		var relative float64
		if raw1 != 0 {
			relative = r.Score / raw1
		}
		graded := 100 * (0.4*math.Pow(0.94, float64(i)) + 0.6*relative)
		if graded < 1 {
			graded = 1
		}
		out[i] = Ranked{ID: r.ID, Score: graded}
	}
	return out
}

// HybridSearch runs RRF fusion followed by graded normalization, the
// convenience entry point used by the ranking orchestrator.
func HybridSearch(keywordRanking, semanticRanking []Ranked, kwWeight, semWeight float64) []Ranked {
	return NormalizeGraded(RRF(keywordRanking, semanticRanking, kwWeight, semWeight))
}
