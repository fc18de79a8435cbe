package tools

import (
	"context"
	"strings"

	"rlmengine/internal/admission"
	"rlmengine/internal/engine"
	"rlmengine/internal/projectstore"
)

// Admitter implements restapi.Admitter: it runs the admission pipeline
// against the raw credential, resolves the target project's settings and
// document corpus, and assembles the per-request HandlerContext the
// dispatcher needs.
type Admitter struct {
	Pipeline *admission.Pipeline
	Projects *projectstore.Store
}

// Admit resolves rawKey and projectID into a HandlerContext and the
// ProjectSettings the dispatcher's auto-remember gate needs.
func (a *Admitter) Admit(ctx context.Context, rawKey, projectID string) (*engine.HandlerContext, engine.ProjectSettings, error) {
	principal, err := a.Pipeline.Admit(ctx, admission.Request{RawKey: rawKey, ProjectID: projectID})
	if err != nil {
		return nil, engine.ProjectSettings{}, err
	}

	project, err := a.Projects.Get(ctx, principal.ProjectID)
	if err != nil {
		return nil, engine.ProjectSettings{}, err
	}

	hc := engine.NewHandlerContext(ctx, a.Projects.LoadIndex)
	hc.ProjectID = project.ID
	hc.UserID = principal.UserID
	hc.TeamID = principal.TeamID
	hc.Plan = principal.Plan
	hc.AccessLevel = principal.AccessLevel
	hc.Settings = project.Settings

	settings := engine.ProjectSettings{
		MemorySaveOnCommit: project.MemorySaveOnCommit,
		MemoryInjectTypes:  splitCSV(project.Settings["memory_inject_types"]),
	}
	return hc, settings, nil
}

// splitCSV parses a comma-separated settings value, trimming whitespace
// and dropping empty entries. An empty input yields a nil slice, so
// dispatcher.toMemoryTypes's own nil check short-circuits to "no filter".
func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
