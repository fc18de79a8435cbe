package plan

import (
	"testing"

	"rlmengine/internal/domain"
)

func TestFreePlanDisallowsSemanticSearch(t *testing.T) {
	if AllowsSemanticSearch(domain.PlanFree) {
		t.Fatalf("expected FREE plan to disallow semantic search")
	}
}

func TestProPlanAllowsSemanticButNotCrossProject(t *testing.T) {
	if !AllowsSemanticSearch(domain.PlanPro) {
		t.Fatalf("expected PRO to allow semantic search")
	}
	if AllowsCrossProject(domain.PlanPro) {
		t.Fatalf("expected PRO to disallow cross-project query")
	}
}

func TestTeamPlanAllowsCrossProject(t *testing.T) {
	if !AllowsCrossProject(domain.PlanTeam) {
		t.Fatalf("expected TEAM to allow cross-project query")
	}
}

func TestEnterpriseHasUnlimitedMonthlyQueries(t *testing.T) {
	if For(domain.PlanEnterprise).MonthlyQueries != 0 {
		t.Fatalf("expected ENTERPRISE monthly queries to be unlimited (0)")
	}
}

func TestUnknownPlanDefaultsToFree(t *testing.T) {
	limits := For(domain.Plan("BOGUS"))
	if limits != For(domain.PlanFree) {
		t.Fatalf("expected unknown plan to default to FREE limits")
	}
}

func TestBundleMonthlyQueries(t *testing.T) {
	if BundleMonthlyQueries(domain.BundleLite) <= 0 {
		t.Fatalf("expected LITE bundle to have a finite quota")
	}
	if BundleMonthlyQueries(domain.BundleUnlimited) != 0 {
		t.Fatalf("expected UNLIMITED bundle quota sentinel to be 0")
	}
}
