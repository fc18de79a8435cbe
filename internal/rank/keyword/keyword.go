// Package keyword implements the BM25-flavored keyword scorer: stopword
// filtering, stemmed substring matching, title weighting, phrase and
// coverage bonuses, list-query boosting, and the internal-path penalty.
package keyword

import (
	"regexp"
	"strings"

	"rlmengine/internal/rank/constants"
	"rlmengine/internal/stem"
)

var splitRe = regexp.MustCompile(`[^\w]+`)

// ExtractKeywords splits a query into lowercase keywords, dropping stop
// words and anything shorter than 2 characters.
func ExtractKeywords(query string) []string {
	words := splitRe.Split(strings.ToLower(query), -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" || len(w) < 2 {
			continue
		}
		if _, stop := constants.StopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// ExpandKeywords appends concrete terms for abstract query keywords found
// in constants.QueryExpansions (single keywords and 2-word phrases),
// preserving keyword order and skipping duplicates.
func ExpandKeywords(keywords []string) []string {
	expanded := append([]string(nil), keywords...)
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		seen[k] = struct{}{}
	}

	appendExpansions := func(term string) {
		exp, ok := constants.QueryExpansions[term]
		if !ok {
			return
		}
		for _, e := range exp {
			el := strings.ToLower(e)
			if _, ok := seen[el]; !ok {
				seen[el] = struct{}{}
				expanded = append(expanded, el)
			}
		}
	}

	for _, k := range keywords {
		appendExpansions(k)
	}
	for i := 0; i < len(keywords)-1; i++ {
		appendExpansions(keywords[i] + " " + keywords[i+1])
	}

	return expanded
}

// IsListQuery reports whether the query matches any list/enumeration
// intent pattern ("what are the", "roadmap", "next steps", ...).
func IsListQuery(query string) bool {
	ql := strings.ToLower(query)
	for _, p := range constants.ListQueryPatterns {
		if strings.Contains(ql, p) {
			return true
		}
	}
	return false
}

// Section is the minimal shape the scorer needs; internal/index.Section
// satisfies it structurally via the same field names, kept here as its
// own type so this package has no dependency on internal/index.
type Section struct {
	Title    string
	Content  string
	Body     string
	FilePath string
	Level    int
}

// Score computes the keyword relevance score for a section given the
// (already stop-word-filtered) query keywords, the project's ubiquitous
// keyword set, and whether the query is a list query.
func Score(sec Section, keywords []string, ubiquitous map[string]struct{}, isListQuery bool) float64 {
	score := 0.0
	titleLower := strings.ToLower(sec.Title)
	bodyLower := strings.ToLower(sec.Body)

	bodyLen := float64(len(bodyLower))
	lengthNorm := 1.0 / (1.0 + 0.75*(bodyLen/2000.0-1.0))
	if lengthNorm < 0.15 {
		lengthNorm = 0.15
	}

	titleKeywordHits := 0

	for _, kw := range keywords {
		if len(kw) < 2 {
			continue
		}
		st := stem.Stem(kw)

		titleCount := strings.Count(titleLower, kw)
		if titleCount == 0 && st != kw {
			titleCount = strings.Count(titleLower, st)
		}
		if titleCount > 0 {
			titleKeywordHits++
			_, generic := constants.GenericTitleTerms[kw]
			_, genericStem := constants.GenericTitleTerms[st]
			_, ubiq := ubiquitous[kw]
			_, ubiqStem := ubiquitous[st]
			distinctive := !generic && !genericStem && !ubiq && !ubiqStem
			if distinctive {
				score += float64(titleCount) * 5.0
			} else {
				score += float64(titleCount) * 1.5
			}
		}

		bodyCount := strings.Count(bodyLower, kw)
		if bodyCount == 0 && st != kw {
			bodyCount = strings.Count(bodyLower, st)
		}
		score += float64(bodyCount) * lengthNorm
	}

	levelBonus := float64(4-sec.Level) * 0.5
	if levelBonus < 0 {
		levelBonus = 0
	}
	if score > 0 {
		score += levelBonus
	}

	if titleKeywordHits >= 2 {
		score *= 1.0 + float64(titleKeywordHits)*2.0
	}

	var significant []string
	for _, k := range keywords {
		if len(k) >= 3 {
			significant = append(significant, k)
		}
	}
	if len(significant) >= 2 {
		n := len(significant)
		if n > 4 {
			n = 4
		}
		phrase := strings.Join(significant[:n], " ")
		if strings.Contains(titleLower, phrase) {
			score *= 3.0
		}
	}

	if isListQuery && score > 0 {
		score = applyListPatternBoost(sec, score)
	}

	return score
}

func applyListPatternBoost(sec Section, base float64) float64 {
	combined := strings.ToLower(sec.Title + "\n" + sec.Content)

	for _, pat := range constants.NumberedSectionPatterns {
		re := regexp.MustCompile(pat)
		for _, line := range strings.Split(combined, "\n") {
			if re.MatchString(line) {
				return base * 1.5
			}
		}
	}

	for _, marker := range constants.PlannedContentMarkers {
		if strings.Contains(combined, strings.ToLower(marker)) {
			return base * 1.3
		}
	}

	return base
}

// IsInternalPath reports whether a file path matches one of the
// internal/debug patterns that should be deprioritized.
func IsInternalPath(filePath string) bool {
	if filePath == "" {
		return false
	}
	pl := strings.ToLower(filePath)
	for _, p := range constants.InternalPathPatterns {
		if strings.Contains(pl, p) {
			return true
		}
	}
	return false
}

// ApplyInternalPathPenalty multiplies score by the internal-path penalty
// when the section's file path is internal/debug.
func ApplyInternalPathPenalty(score float64, filePath string) float64 {
	if IsInternalPath(filePath) {
		return score * constants.InternalPathPenalty
	}
	return score
}
