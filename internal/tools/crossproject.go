package tools

import (
	"context"
	"sort"

	"rlmengine/internal/apperr"
	"rlmengine/internal/chunkstore"
	"rlmengine/internal/domain"
	"rlmengine/internal/embedclient"
	"rlmengine/internal/engine"
	"rlmengine/internal/index"
	"rlmengine/internal/plan"
)

// maxCrossProjectResults bounds the merged fan-out result set, so one
// team with many projects doesn't blow an agent's context budget.
const maxCrossProjectResults = 20

// projectLister resolves every project under a team, the dependency the
// team-scoped endpoint needs to fan a query out across project indexes.
// Satisfied by *projectstore.Store.
type projectLister interface {
	ListByTeam(ctx context.Context, teamID string) ([]domain.Project, error)
	LoadIndex(ctx context.Context, projectID string) (*index.DocumentIndex, error)
}

// CrossProjectHandler implements rlm_multi_project_query, the sole tool
// exposed by the team-scoped MCP endpoint: it runs hybridRank against
// every project owned by the calling team and merges the results by
// score, gated by the team's plan allowing cross-project search.
type CrossProjectHandler struct {
	Embedder embedclient.Client
	Chunks   *chunkstore.Store
	Projects projectLister
}

func (h *CrossProjectHandler) Name() string { return "rlm_multi_project_query" }
func (h *CrossProjectHandler) Description() string {
	return "Search documentation across every project owned by the calling team and return the merged top matches."
}
func (h *CrossProjectHandler) MinAccess() domain.AccessLevel { return domain.AccessViewer }

func (h *CrossProjectHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"query": stringProp("the search query"),
		"limit": intProp("maximum merged results to return (default 20)"),
	}, "query")
}

// crossProjectHit is one merged match, tagged with the project it came
// from since the caller has no other way to tell results apart.
type crossProjectHit struct {
	ProjectID string  `json:"project_id"`
	ProjectSlug string `json:"project_slug"`
	Title     string  `json:"title"`
	File      string  `json:"file"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Score     float64 `json:"score"`
}

func (h *CrossProjectHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	query, err := requiredString(params, "query")
	if err != nil {
		return engine.ToolResult{}, err
	}
	limit := intParam(params, "limit", maxCrossProjectResults)

	if !plan.AllowsCrossProject(hc.Plan) {
		return engine.ToolResult{}, apperr.New(apperr.KindAccess, "this plan does not allow cross-project search")
	}
	if hc.TeamID == "" {
		return engine.ToolResult{Text: "no team associated with this request", Data: []crossProjectHit{}}, nil
	}

	projects, err := h.Projects.ListByTeam(hc.Context, hc.TeamID)
	if err != nil {
		return engine.ToolResult{}, err
	}

	embedder := h.Embedder
	if !planAllowsSemantic(hc.Plan) {
		embedder = nil
	}

	var hits []crossProjectHit
	for _, proj := range projects {
		idx, err := h.Projects.LoadIndex(hc.Context, proj.ID)
		if err != nil {
			return engine.ToolResult{}, err
		}
		if idx == nil || len(idx.Sections) == 0 {
			continue
		}

		projHC := &engine.HandlerContext{Context: hc.Context, ProjectID: proj.ID, TeamID: hc.TeamID, Plan: hc.Plan}
		ranked, _, err := hybridRank(projHC, idx, embedder, h.Chunks, query)
		if err != nil {
			return engine.ToolResult{}, err
		}

		byID := sectionsByID(idx)
		for _, r := range ranked {
			sec, ok := byID[r.ID]
			if !ok {
				continue
			}
			hits = append(hits, crossProjectHit{
				ProjectID: proj.ID, ProjectSlug: proj.Slug, Title: sec.Title, File: sec.FilePath,
				StartLine: sec.StartLine, EndLine: sec.EndLine, Score: r.Score,
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}

	return engine.ToolResult{Text: itoaLen(len(hits)) + " results across " + itoaLen(len(projects)) + " projects", Data: hits}, nil
}
