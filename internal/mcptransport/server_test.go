package mcptransport

import (
	"context"
	"testing"

	"rlmengine/internal/domain"
	"rlmengine/internal/engine"
)

type echoHandler struct {
	name      string
	minAccess domain.AccessLevel
}

func (e *echoHandler) Name() string        { return e.name }
func (e *echoHandler) Description() string { return "echoes params" }
func (e *echoHandler) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
		"required":   []string{"query"},
	}
}
func (e *echoHandler) MinAccess() domain.AccessLevel { return e.minAccess }
func (e *echoHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	return engine.ToolResult{Text: "echoed", Data: params}, nil
}

func testHandlers() []engine.Handler {
	return []engine.Handler{
		&echoHandler{name: "rlm_search", minAccess: domain.AccessViewer},
		&echoHandler{name: multiProjectQueryTool, minAccess: domain.AccessViewer},
	}
}

func TestToolsForScopeProjectIncludesEverything(t *testing.T) {
	handlers := testHandlers()
	got := toolsForScope(handlers, ScopeProject)
	if len(got) != len(handlers) {
		t.Fatalf("expected project scope to expose all %d tools, got %d", len(handlers), len(got))
	}
}

func TestToolsForScopeTeamOnlyExposesMultiProjectQuery(t *testing.T) {
	got := toolsForScope(testHandlers(), ScopeTeam)
	if len(got) != 1 || got[0].Name() != multiProjectQueryTool {
		t.Fatalf("expected team scope to expose only %s, got %+v", multiProjectQueryTool, got)
	}
}

func TestNewServerBuildsBothScopes(t *testing.T) {
	dispatcher := engine.NewDispatcher(testHandlers(), nil, nil)
	server := NewServer(dispatcher, "rlmengine", "1.0.0")
	if server.projectMCP == nil || server.teamMCP == nil {
		t.Fatalf("expected both project and team mcp.Server instances to be built")
	}
}

func TestToJSONSchemaRoundTripsObjectShape(t *testing.T) {
	schema := toJSONSchema(map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
		"required":   []string{"query"},
	})
	if schema.Type != "object" {
		t.Fatalf("expected type object, got %q", schema.Type)
	}
	if _, ok := schema.Properties["query"]; !ok {
		t.Fatalf("expected query property to survive round trip, got %+v", schema.Properties)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "query" {
		t.Fatalf("expected required [query], got %v", schema.Required)
	}
}

func TestToCallToolResultAppendsData(t *testing.T) {
	result := toCallToolResult(engine.ToolResult{Text: "ok", Data: map[string]string{"a": "b"}})
	if result.IsError {
		t.Fatalf("expected success result")
	}
	if len(result.Content) != 1 {
		t.Fatalf("expected exactly one content block")
	}
}

func TestCreateErrorResultSetsIsError(t *testing.T) {
	result := createErrorResult("boom")
	if !result.IsError {
		t.Fatalf("expected IsError to be set")
	}
}

func TestWithHandlerContextRoundTrips(t *testing.T) {
	hc := &engine.HandlerContext{Context: context.Background(), ProjectID: "proj1"}
	settings := engine.ProjectSettings{MemorySaveOnCommit: true}
	ctx := WithHandlerContext(context.Background(), hc, settings)

	got, gotSettings, ok := HandlerContextFrom(ctx)
	if !ok || got != hc {
		t.Fatalf("expected to recover the same HandlerContext")
	}
	if !gotSettings.MemorySaveOnCommit {
		t.Fatalf("expected settings to round trip")
	}
}

func TestHandlerContextFromMissingReturnsFalse(t *testing.T) {
	if _, _, ok := HandlerContextFrom(context.Background()); ok {
		t.Fatalf("expected no HandlerContext on a bare context")
	}
}
