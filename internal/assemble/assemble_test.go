package assemble

import (
	"testing"

	"rlmengine/internal/tokens"
)

func makeSections(n int, contentLen int) []Section {
	sections := make([]Section, n)
	body := make([]byte, contentLen)
	for i := range body {
		body[i] = 'x'
	}
	for i := 0; i < n; i++ {
		sections[i] = Section{
			ID:      "sec" + string(rune('a'+i)),
			Title:   "Section",
			Content: string(body),
			File:    "doc.md",
		}
	}
	return sections
}

func TestAssembleRespectsBudgetNonAbstract(t *testing.T) {
	req := Request{
		Query:     "frobnicate widget",
		Ranked:    makeSections(10, 400),
		MaxTokens: 50,
	}
	result := Assemble(req)
	if result.TotalTokens > req.MaxTokens {
		t.Fatalf("expected total tokens <= budget, got %d > %d", result.TotalTokens, req.MaxTokens)
	}
}

func TestAssembleDeliversInRankOrder(t *testing.T) {
	sections := []Section{
		{ID: "first", Title: "A", Content: "short text"},
		{ID: "second", Title: "B", Content: "short text"},
		{ID: "third", Title: "C", Content: "short text"},
	}
	req := Request{Query: "frobnicate", Ranked: sections, MaxTokens: 1000}
	result := Assemble(req)
	for i, d := range result.Sections {
		if d.SectionID != sections[i].ID {
			t.Fatalf("expected rank order preserved, got %v", result.Sections)
		}
	}
}

func TestAssembleNoDuplicateSections(t *testing.T) {
	sections := makeSections(5, 10)
	req := Request{Query: "frobnicate", Ranked: sections, MaxTokens: 1000}
	result := Assemble(req)
	seen := make(map[string]bool)
	for _, d := range result.Sections {
		if seen[d.SectionID] {
			t.Fatalf("section %s delivered twice", d.SectionID)
		}
		seen[d.SectionID] = true
	}
}

func TestAssembleEmptyRankedYieldsEmptySections(t *testing.T) {
	req := Request{Query: "frobnicate", Ranked: nil, MaxTokens: 1000}
	result := Assemble(req)
	if len(result.Sections) != 0 {
		t.Fatalf("expected no sections for empty ranked input, got %d", len(result.Sections))
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected zero total tokens for empty input, got %d", result.TotalTokens)
	}
}

func TestAssembleReturnReferencesUsesPreview(t *testing.T) {
	longContent := ""
	for i := 0; i < 50; i++ {
		longContent += "word "
	}
	sections := []Section{{ID: "s1", Title: "Doc", Content: longContent}}
	req := Request{Query: "frobnicate", Ranked: sections, MaxTokens: 1000, ReturnReferences: true}
	result := Assemble(req)
	if len(result.Sections) != 1 {
		t.Fatalf("expected 1 delivered section")
	}
	if result.Sections[0].Reference == nil {
		t.Fatalf("expected reference mode to populate Reference field")
	}
	if result.Sections[0].Content != "" {
		t.Fatalf("expected full content to be omitted in reference mode")
	}
}

func TestAssembleAbstractQueryRaisesMinSectionFloor(t *testing.T) {
	sections := makeSections(8, 5)
	req := Request{Query: "explain the architecture", Ranked: sections, MaxTokens: 20}
	result := Assemble(req)
	if len(result.Sections) < 1 {
		t.Fatalf("expected abstract query to deliver at least one section")
	}
}

func TestAssembleRoutingRecommendationSimple(t *testing.T) {
	req := Request{Query: "what is pricing", Ranked: nil, MaxTokens: 100}
	result := Assemble(req)
	if result.RoutingRecommendation != "direct" {
		t.Fatalf("expected direct routing for simple query, got %q", result.RoutingRecommendation)
	}
}

func TestAssembleRoutingRecommendationComplex(t *testing.T) {
	longQuery := "how does pricing work and what about limits and also tell me about architecture and deployment and the whole stack from end to end please explain everything"
	req := Request{Query: longQuery, Ranked: nil, MaxTokens: 100}
	result := Assemble(req)
	if result.RoutingRecommendation != "rlm_runtime" {
		t.Fatalf("expected rlm_runtime routing for complex query, got %q", result.RoutingRecommendation)
	}
}

func TestAssembleFirstQueryIncludesTips(t *testing.T) {
	req := Request{Query: "frobnicate", Ranked: nil, MaxTokens: 100, FirstQuery: true, PlanTips: []string{"tip1"}}
	result := Assemble(req)
	if len(result.Tips) != 1 {
		t.Fatalf("expected tips on first query")
	}
}

func TestAssembleSessionContextPreservedAndCounted(t *testing.T) {
	sections := makeSections(3, 400)
	withSession := Request{Query: "frobnicate", Ranked: sections, MaxTokens: 50, SessionContext: "some long prior session context here that consumes tokens"}
	result := Assemble(withSession)
	if result.TotalTokens < tokens.Count(withSession.SessionContext) {
		t.Fatalf("expected total tokens to include session context, got %d", result.TotalTokens)
	}
	if result.SessionContext == "" {
		t.Fatalf("expected session context to be preserved in result")
	}
}
