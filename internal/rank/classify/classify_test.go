package classify

import "testing"

func TestWeightsKeywordHeavyOnStrongSpecificSignal(t *testing.T) {
	scores := map[string]float64{"a": 20, "b": 2, "c": 1}
	kw, sem := Weights("REST API endpoint", scores)
	if kw != 0.60 || sem != 0.40 {
		t.Fatalf("expected keyword-heavy weights, got %.2f/%.2f", kw, sem)
	}
}

func TestWeightsBalancedOnStrongNonSpecificSignal(t *testing.T) {
	scores := map[string]float64{"a": 20, "b": 2, "c": 1}
	kw, sem := Weights("xyzzy plugh frobnicate", scores)
	if kw != 0.40 || sem != 0.60 {
		t.Fatalf("expected balanced weights, got %.2f/%.2f", kw, sem)
	}
}

func TestWeightsSemanticHeavyOnConceptualPrefix(t *testing.T) {
	scores := map[string]float64{"a": 2, "b": 2, "c": 2}
	kw, sem := Weights("how does the system handle retries", scores)
	if kw != 0.25 || sem != 0.75 {
		t.Fatalf("expected semantic-heavy weights, got %.2f/%.2f", kw, sem)
	}
}

func TestWeightsBalancedDefault(t *testing.T) {
	scores := map[string]float64{"a": 2, "b": 2, "c": 2}
	kw, sem := Weights("frobnicate widgets", scores)
	if kw != 0.40 || sem != 0.60 {
		t.Fatalf("expected balanced default, got %.2f/%.2f", kw, sem)
	}
}

func TestWeightsEmptyScoresDefaultsBalanced(t *testing.T) {
	kw, sem := Weights("anything", map[string]float64{})
	if kw != 0.40 || sem != 0.60 {
		t.Fatalf("expected balanced for empty scores, got %.2f/%.2f", kw, sem)
	}
}

func TestIsAbstractQueryDetectsExpansionTerm(t *testing.T) {
	if !IsAbstractQuery("tell me about the architecture") {
		t.Fatalf("expected 'architecture' to be detected as abstract")
	}
	if IsAbstractQuery("the quick brown fox") {
		t.Fatalf("expected unrelated query to not be abstract")
	}
}

func TestExpandQueryAddsConcreteTerms(t *testing.T) {
	expanded := ExpandQuery("explain the architecture")
	if expanded == "explain the architecture" {
		t.Fatalf("expected architecture to expand with concrete terms")
	}
}

func TestExpandQueryNoopWithoutAbstractTerm(t *testing.T) {
	q := "frobnicate the widget"
	if ExpandQuery(q) != q {
		t.Fatalf("expected no-op expansion, got %q", ExpandQuery(q))
	}
}
