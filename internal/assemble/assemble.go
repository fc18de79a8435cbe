// Package assemble implements the context assembler: it turns a ranked
// list of sections, a token budget, and a handful of delivery-mode flags
// into the final content payload sent to a client.
package assemble

import (
	"strings"

	"rlmengine/internal/rank/classify"
	"rlmengine/internal/tokens"
)

// Section is the minimal shape the assembler needs to read from a
// ranked candidate.
type Section struct {
	ID      string
	ChunkID string // precomputed chunkstore row backing this section's best match, if any; falls back to ID
	Title   string
	Content string
	File    string
	StartLine int
	EndLine   int
	Score     float64
}

// Summary is a stored summary of a section, substituted for full content
// when PreferSummaries is set and a matching summary exists.
type Summary struct {
	SectionID string
	Content   string
}

// Reference is the citation-only shape emitted when ReturnReferences is
// set: a preview instead of full content, with a pointer to fetch more.
type Reference struct {
	ChunkID        string  `json:"chunk_id"`
	Title          string  `json:"title"`
	Preview        string  `json:"preview"`
	File           string  `json:"file"`
	StartLine      int     `json:"start_line"`
	EndLine        int     `json:"end_line"`
	RelevanceScore float64 `json:"relevance_score"`
	TokenCount     int     `json:"token_count"`
}

// Suggestion is a same-file or next-ranked section that did not fit.
type Suggestion struct {
	Title     string `json:"title"`
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Delivered is one section (or reference) actually included in the
// response.
type Delivered struct {
	SectionID  string
	Title      string
	Content    string
	Reference  *Reference
	TokenCount int
	Truncated  bool
}

// Request bundles the assembler's inputs.
type Request struct {
	Query            string
	Ranked           []Section
	MaxTokens        int
	PreferSummaries  bool
	ReturnReferences bool
	SessionContext   string
	SharedContext    []SharedDoc
	UseSharedContext bool
	FirstQuery       bool
	PlanTips         []string
	Summaries        map[string]Summary // keyed by section ID
}

// SharedDoc is one project-linked shared-collection document competing
// for the shared-context budget allocation.
type SharedDoc struct {
	Category string // MANDATORY, BEST_PRACTICES, GUIDELINES, REFERENCE
	Content  string
}

var categoryPrecedence = []string{"MANDATORY", "BEST_PRACTICES", "GUIDELINES", "REFERENCE"}

var categoryShare = map[string]float64{
	"MANDATORY":      0.40,
	"BEST_PRACTICES": 0.30,
	"GUIDELINES":     0.20,
	"REFERENCE":      0.10,
}

// Result is the assembled response.
type Result struct {
	SessionContext        string
	SharedContext         string
	Sections              []Delivered
	Suggestions           []Suggestion
	TotalTokens           int
	RoutingRecommendation string
	Tips                  []string
}

const (
	abstractOverrunTolerance = 0.20
	previewChars             = 100
	maxSuggestions           = 5
)

// Assemble runs the full budget-aware assembly procedure described in
// the component design: session-context prefix, shared-context
// allocation, abstract-query minimum-section floor, rank-ordered
// walk-and-truncate, and routing recommendation.
func Assemble(req Request) Result {
	result := Result{}
	budget := req.MaxTokens

	if strings.TrimSpace(req.SessionContext) != "" {
		result.SessionContext = req.SessionContext
		budget -= tokens.Count(req.SessionContext)
	}

	if req.UseSharedContext && len(req.SharedContext) > 0 {
		shared, sharedTokens := allocateShared(req.SharedContext, budget)
		result.SharedContext = shared
		budget -= sharedTokens
	}

	isAbstract := classify.IsAbstractQuery(req.Query)
	minSections := 0
	if isAbstract {
		minSections = 5
	}

	delivered, suggestions := walkSections(req, budget, minSections)
	result.Sections = delivered
	result.Suggestions = suggestions

	total := tokens.Count(result.SessionContext) + tokens.Count(result.SharedContext)
	for _, d := range delivered {
		total += d.TokenCount
	}
	result.TotalTokens = total

	result.RoutingRecommendation = routingRecommendation(req.Query)

	if req.FirstQuery {
		result.Tips = req.PlanTips
	}

	return result
}

// allocateShared assigns each shared document a token share by category
// precedence, capped at min(0.4*budget, total shared tokens).
func allocateShared(docs []SharedDoc, budget int) (string, int) {
	if budget <= 0 {
		return "", 0
	}

	byCategory := make(map[string][]SharedDoc)
	totalSharedTokens := 0
	for _, d := range docs {
		byCategory[d.Category] = append(byCategory[d.Category], d)
		totalSharedTokens += tokens.Count(d.Content)
	}

	sharedCap := int(0.4 * float64(budget))
	if totalSharedTokens < sharedCap {
		sharedCap = totalSharedTokens
	}
	if sharedCap <= 0 {
		return "", 0
	}

	var builder strings.Builder
	used := 0
	for _, category := range categoryPrecedence {
		catDocs := byCategory[category]
		if len(catDocs) == 0 {
			continue
		}
		catBudget := int(categoryShare[category] * float64(sharedCap))
		catUsed := 0
		for _, d := range catDocs {
			count := tokens.Count(d.Content)
			if catUsed+count > catBudget {
				break
			}
			builder.WriteString(d.Content)
			builder.WriteString("\n\n")
			catUsed += count
			used += count
		}
	}
	return strings.TrimSpace(builder.String()), used
}

func walkSections(req Request, budget, minSections int) ([]Delivered, []Suggestion) {
	var delivered []Delivered
	var suggestions []Suggestion
	remaining := budget

	for i, sec := range req.Ranked {
		content := sec.Content
		if req.PreferSummaries {
			if summary, ok := req.Summaries[sec.ID]; ok {
				content = summary.Content
			}
		}

		count := tokens.Count(content)
		overBudgetAllowed := isAbstractOverrunAllowed(len(delivered), minSections, remaining, count)

		if count <= remaining || overBudgetAllowed {
			delivered = append(delivered, buildDelivered(req, sec, content, count, false))
			remaining -= count
			continue
		}

		if remaining > 0 {
			truncated := truncateToFit(content, remaining)
			tCount := tokens.Count(truncated)
			delivered = append(delivered, buildDelivered(req, sec, truncated, tCount, true))
			remaining -= tCount
		}

		suggestions = collectSuggestions(req.Ranked[i:], maxSuggestions)
		break
	}

	return delivered, suggestions
}

// isAbstractOverrunAllowed permits exactly one additional section beyond
// budget when an abstract query has not yet reached its minimum section
// floor, provided the overrun is within tolerance.
func isAbstractOverrunAllowed(deliveredCount, minSections, remaining, sectionTokens int) bool {
	if minSections == 0 || deliveredCount >= minSections {
		return false
	}
	if remaining <= 0 {
		return false
	}
	overrun := float64(sectionTokens-remaining) / float64(remaining)
	return overrun <= abstractOverrunTolerance
}

func buildDelivered(req Request, sec Section, content string, count int, truncated bool) Delivered {
	d := Delivered{SectionID: sec.ID, Title: sec.Title, TokenCount: count, Truncated: truncated}
	if req.ReturnReferences {
		preview := content
		if len(preview) > previewChars {
			preview = preview[:previewChars]
		}
		chunkID := sec.ChunkID
		if chunkID == "" {
			chunkID = sec.ID
		}
		d.Reference = &Reference{
			ChunkID:        chunkID,
			Title:          sec.Title,
			Preview:        preview,
			File:           sec.File,
			StartLine:      sec.StartLine,
			EndLine:        sec.EndLine,
			RelevanceScore: sec.Score,
			TokenCount:     tokens.Count(preview),
		}
		d.TokenCount = tokens.Count(preview)
	} else {
		d.Content = content
	}
	return d
}

func truncateToFit(content string, budget int) string {
	if budget <= 0 {
		return ""
	}
	approxChars := budget * 4
	if approxChars >= len(content) {
		return content
	}
	return content[:approxChars]
}

func collectSuggestions(remaining []Section, max int) []Suggestion {
	var out []Suggestion
	for _, sec := range remaining {
		if len(out) >= max {
			break
		}
		out = append(out, Suggestion{Title: sec.Title, File: sec.File, StartLine: sec.StartLine, EndLine: sec.EndLine})
	}
	return out
}

const (
	complexWordThreshold = 25
)

var decompositionMarkers = []string{"step by step", "break down", "first,", "then,", "finally,"}

// routingRecommendation classifies a query as wanting direct handling or
// the heavier rlm_runtime decomposition path.
func routingRecommendation(query string) string {
	if isComplexQuery(query) {
		return "rlm_runtime"
	}
	return "direct"
}

func isComplexQuery(query string) bool {
	lower := strings.ToLower(query)
	questionMarks := strings.Count(lower, "?")
	if questionMarks > 1 {
		return true
	}
	words := strings.Fields(lower)
	if len(words) > complexWordThreshold {
		return true
	}
	for _, marker := range decompositionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
