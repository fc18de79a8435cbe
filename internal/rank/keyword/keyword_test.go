package keyword

import "testing"

func TestExtractKeywordsFiltersStopWordsAndShort(t *testing.T) {
	kws := ExtractKeywords("What are the pricing tiers?")
	want := map[string]bool{"pricing": true, "tiers": true}
	for _, k := range kws {
		if !want[k] {
			t.Errorf("unexpected keyword %q survived filtering: %v", k, kws)
		}
	}
	if len(kws) != 2 {
		t.Fatalf("expected 2 keywords, got %v", kws)
	}
}

func TestExactPhraseBoostInTitle(t *testing.T) {
	sec := Section{
		Title:   "Pricing Tiers",
		Content: "# Pricing Tiers\n$19 FREE PRO TEAM ENTERPRISE",
		Body:    "$19 FREE PRO TEAM ENTERPRISE",
		Level:   2,
	}
	kws := ExtractKeywords("pricing tiers")
	score := Score(sec, kws, nil, false)
	if score <= 0 {
		t.Fatalf("expected positive score, got %f", score)
	}

	other := Section{
		Title:   "Architecture",
		Content: "# Architecture\nThis section briefly mentions pricing once.",
		Body:    "This section briefly mentions pricing once.",
		Level:   2,
	}
	otherScore := Score(other, kws, nil, false)
	if otherScore >= score {
		t.Fatalf("expected exact phrase title match to outrank prose mention: %f vs %f", score, otherScore)
	}
}

func TestInternalPathPenaltyReducesScore(t *testing.T) {
	sec := Section{Title: "Debug Notes", Content: "debug", Body: "debug", Level: 2}
	kws := []string{"debug"}
	base := Score(sec, kws, nil, false)
	penalized := ApplyInternalPathPenalty(base, ".claude/commands/debug.md")
	clean := ApplyInternalPathPenalty(base, "docs/guide.md")
	if !(penalized < clean) {
		t.Fatalf("expected internal path to be penalized: penalized=%f clean=%f", penalized, clean)
	}
}

func TestStemFallbackMonotonicity(t *testing.T) {
	// "prices" stems to "pric"; a body containing "pricing" should score
	// at least as well via stem fallback as a body with no match at all.
	sec := Section{Title: "Docs", Content: "# Docs\npricing details here", Body: "pricing details here", Level: 3}
	withStem := Score(sec, []string{"prices"}, nil, false)

	noMatch := Section{Title: "Docs", Content: "# Docs\nunrelated content", Body: "unrelated content", Level: 3}
	without := Score(noMatch, []string{"prices"}, nil, false)

	if withStem < without {
		t.Fatalf("expected stem-fallback match to score >= no match: %f vs %f", withStem, without)
	}
	if withStem <= 0 {
		t.Fatalf("expected positive score from stem fallback, got %f", withStem)
	}
}

func TestTitleCoverageBoost(t *testing.T) {
	single := Section{Title: "Pricing Overview", Content: "# Pricing Overview\ntext", Body: "text", Level: 2}
	singleScore := Score(single, []string{"pricing"}, nil, false)

	multi := Section{Title: "Pricing Tiers Overview", Content: "# Pricing Tiers Overview\ntext", Body: "text", Level: 2}
	multiScore := Score(multi, []string{"pricing", "tiers"}, nil, false)

	if multiScore <= singleScore {
		t.Fatalf("expected multi-keyword title coverage boost to increase score: %f vs %f", multiScore, singleScore)
	}
}

func TestListQueryBoostsNumberedSections(t *testing.T) {
	numbered := Section{Title: "Article #1", Content: "### Article #1\nfirst article body", Body: "first article body", Level: 3}
	plain := Section{Title: "Article Index", Content: "### Article Index\nfirst article body", Body: "first article body", Level: 3}

	kws := []string{"article"}
	numberedScore := Score(numbered, kws, nil, true)
	plainScore := Score(plain, kws, nil, true)

	if numberedScore <= plainScore {
		t.Fatalf("expected numbered section to get list-query boost: %f vs %f", numberedScore, plainScore)
	}
}

func TestGenericVsDistinctiveTitleWeight(t *testing.T) {
	generic := Section{Title: "Tools Guide", Content: "# Tools Guide\nx", Body: "x", Level: 2}
	distinctive := Section{Title: "Webhook Delivery", Content: "# Webhook Delivery\nx", Body: "x", Level: 2}

	genericScore := Score(generic, []string{"tools"}, nil, false)
	distinctiveScore := Score(distinctive, []string{"webhook"}, nil, false)

	if distinctiveScore <= genericScore {
		t.Fatalf("expected distinctive title term to outweigh generic term: %f vs %f", distinctiveScore, genericScore)
	}
}

func TestExpandKeywordsAddsConcreteTerms(t *testing.T) {
	expanded := ExpandKeywords([]string{"architecture"})
	found := false
	for _, e := range expanded {
		if e == "fastapi" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected architecture expansion to include fastapi, got %v", expanded)
	}
}
