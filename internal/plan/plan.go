// Package plan holds the table-driven gating rules for each subscription
// Plan: feature flags, per-minute rate limits, and monthly query ceilings.
package plan

import "rlmengine/internal/domain"

// Limits is one plan's gate configuration.
type Limits struct {
	RatePerMinute  int
	MonthlyQueries int
	SemanticSearch bool
	CrossProject   bool
	SummaryStorage bool
}

// table is the static plan → limits mapping. ENTERPRISE's MonthlyQueries
// of 0 means unlimited.
var table = map[domain.Plan]Limits{
	domain.PlanFree: {
		RatePerMinute:  20,
		MonthlyQueries: 100,
		SemanticSearch: false,
		CrossProject:   false,
		SummaryStorage: false,
	},
	domain.PlanPro: {
		RatePerMinute:  60,
		MonthlyQueries: 5000,
		SemanticSearch: true,
		CrossProject:   false,
		SummaryStorage: true,
	},
	domain.PlanTeam: {
		RatePerMinute:  120,
		MonthlyQueries: 20000,
		SemanticSearch: true,
		CrossProject:   true,
		SummaryStorage: true,
	},
	domain.PlanEnterprise: {
		RatePerMinute:  600,
		MonthlyQueries: 0,
		SemanticSearch: true,
		CrossProject:   true,
		SummaryStorage: true,
	},
}

// PartnerBundleRate is the rate-per-minute budget applied to integrator
// clients regardless of the owning workspace's plan.
const PartnerBundleRate = 300

// For returns the gate configuration for p, defaulting to FREE's limits
// for an unrecognized plan value.
func For(p domain.Plan) Limits {
	if l, ok := table[p]; ok {
		return l
	}
	return table[domain.PlanFree]
}

// AllowsSemanticSearch reports whether p may use semantic/hybrid ranking.
func AllowsSemanticSearch(p domain.Plan) bool { return For(p).SemanticSearch }

// AllowsCrossProject reports whether p may issue multi-project queries.
func AllowsCrossProject(p domain.Plan) bool { return For(p).CrossProject }

// AllowsSummaryStorage reports whether p may persist stored summaries.
func AllowsSummaryStorage(p domain.Plan) bool { return For(p).SummaryStorage }

// bundleQuota is an integrator client's monthly query ceiling by tier.
// 0 means unlimited.
var bundleQuota = map[domain.BundleTier]int{
	domain.BundleLite:      2000,
	domain.BundleStandard:  20000,
	domain.BundleUnlimited: 0,
}

// BundleMonthlyQueries returns the monthly query ceiling for a bundle
// tier, or 0 for unlimited.
func BundleMonthlyQueries(tier domain.BundleTier) int {
	return bundleQuota[tier]
}
