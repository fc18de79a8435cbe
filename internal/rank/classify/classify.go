// Package classify implements the adaptive hybrid weight profile selection
// and abstract/list query detection used by the ranking pipeline.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"rlmengine/internal/rank/constants"
	"rlmengine/internal/stem"
)

var wordRe = regexp.MustCompile(`\w+`)

// Weights selects the adaptive (keyword_weight, semantic_weight) profile
// for a query given its keyword scores, per spec §4.5:
//   - strong keyword signal + specific term      -> keyword-heavy
//   - strong keyword signal, not specific        -> balanced
//   - conceptual prefix, no strong keyword signal -> semantic-heavy
//   - otherwise                                   -> balanced
func Weights(query string, keywordScores map[string]float64) (kw, sem float64) {
	queryLower := strings.ToLower(query)

	words := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(queryLower, -1) {
		if len(w) > 2 {
			words[w] = struct{}{}
		}
	}

	strongKeyword := isStrongKeyword(keywordScores)

	hasSpecific := false
	for w := range words {
		if _, ok := constants.SpecificQueryTerms[w]; ok {
			hasSpecific = true
			break
		}
		if _, ok := constants.SpecificQueryTerms[stem.Stem(w)]; ok {
			hasSpecific = true
			break
		}
	}

	isConceptual := false
	for _, p := range constants.ConceptualPrefixes {
		if strings.HasPrefix(queryLower, p) {
			isConceptual = true
			break
		}
	}

	switch {
	case strongKeyword && hasSpecific:
		return constants.HybridKeywordHeavy[0], constants.HybridKeywordHeavy[1]
	case strongKeyword:
		return constants.HybridBalanced[0], constants.HybridBalanced[1]
	case isConceptual:
		return constants.HybridSemanticHeavy[0], constants.HybridSemanticHeavy[1]
	default:
		return constants.HybridBalanced[0], constants.HybridBalanced[1]
	}
}

// isStrongKeyword reports whether the top keyword score is well above the
// median (at least 3x, or the median is zero) and exceeds 15, signaling
// a confident exact/near-exact title match.
func isStrongKeyword(scores map[string]float64) bool {
	var values []float64
	for _, v := range scores {
		if v > 0 {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return false
	}
	sort.Float64s(values)
	top := values[len(values)-1]
	median := values[len(values)/2]
	return top > 15 && (median == 0 || top/median >= 3)
}

// IsAbstractQuery reports whether a query contains an expansion-dictionary
// term, or begins with a conceptual prefix, triggering the assembler's
// minimum-section floor.
func IsAbstractQuery(query string) bool {
	ql := strings.ToLower(query)
	for term := range constants.QueryExpansions {
		if strings.Contains(ql, term) {
			return true
		}
	}
	for _, p := range constants.ConceptualPrefixes {
		if strings.HasPrefix(ql, p) {
			return true
		}
	}
	return false
}

// ExpandQuery appends concrete keywords for any abstract terms found in
// the query, deduplicated and skipping terms already present.
func ExpandQuery(query string) string {
	ql := strings.ToLower(query)
	var expansions []string
	seen := make(map[string]struct{})

	for term, keywords := range constants.QueryExpansions {
		if !strings.Contains(ql, term) {
			continue
		}
		for _, kw := range keywords {
			kwl := strings.ToLower(kw)
			if _, ok := seen[kwl]; ok {
				continue
			}
			if strings.Contains(ql, kwl) {
				continue
			}
			seen[kwl] = struct{}{}
			expansions = append(expansions, kw)
		}
	}

	if len(expansions) == 0 {
		return query
	}
	return query + " " + strings.Join(expansions, " ")
}
