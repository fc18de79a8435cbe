package tools

import (
	"rlmengine/internal/embedclient"
	"rlmengine/internal/engine"
	"rlmengine/internal/memory"
	"rlmengine/internal/plan"
	"rlmengine/internal/ratelimit"
	"rlmengine/internal/summary"
)

// LimitsProvider implements restapi.LimitsProvider: reports a project's
// plan gate configuration alongside its current month-to-date usage.
type LimitsProvider struct {
	Usage *ratelimit.MonthlyUsage
}

func (p *LimitsProvider) Limits(hc *engine.HandlerContext) (map[string]interface{}, error) {
	limits := plan.For(hc.Plan)
	current, err := p.Usage.CurrentMonth(hc.Context, hc.ProjectID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"plan":                 hc.Plan,
		"rate_per_minute":      limits.RatePerMinute,
		"monthly_queries":      limits.MonthlyQueries,
		"monthly_queries_used": current,
		"semantic_search":      limits.SemanticSearch,
		"cross_project":        limits.CrossProject,
		"summary_storage":      limits.SummaryStorage,
	}, nil
}

// StatsProvider implements restapi.StatsProvider: reports a project's
// memory record count alongside its indexed section count. Stored
// summaries are not counted.
type StatsProvider struct {
	Memory  *memory.Store
	Summary *summary.Store
}

func (p *StatsProvider) Stats(hc *engine.HandlerContext) (map[string]interface{}, error) {
	memories, err := p.Memory.List(hc.Context, hc.ProjectID, "", "", false)
	if err != nil {
		return nil, err
	}

	sectionCount := 0
	if idx, err := hc.Index(); err == nil && idx != nil {
		sectionCount = len(idx.Sections)
	}

	return map[string]interface{}{
		"memory_count":   len(memories),
		"section_count":  sectionCount,
	}, nil
}

// ContextProvider implements restapi.ContextProvider, rendering the same
// payload rlm_context_query would for a plain GET request.
type ContextProvider struct {
	Handler *ContextQueryHandler
}

func (p *ContextProvider) Context(hc *engine.HandlerContext, query string) (map[string]interface{}, error) {
	result, err := p.Handler.Invoke(hc, map[string]interface{}{"query": query})
	if err != nil {
		return nil, err
	}
	data, _ := toMap(result.Data)
	return data, nil
}

func toMap(v interface{}) (map[string]interface{}, error) {
	if m, ok := v.(map[string]interface{}); ok {
		return m, nil
	}
	return map[string]interface{}{"result": v}, nil
}

// NewEmbedder selects the embedding client implementation by provider
// name, mirroring config.Config.EmbeddingProvider's "openai"/"stub" switch.
func NewEmbedder(provider, apiKey, baseURL string, stubDimensions int) embedclient.Client {
	if provider == "stub" {
		return embedclient.NewHashStub(stubDimensions)
	}
	opts := []embedclient.OpenAIOption{}
	if baseURL != "" {
		opts = append(opts, embedclient.WithBaseURL(baseURL))
	}
	return embedclient.NewOpenAIClient(apiKey, opts...)
}
