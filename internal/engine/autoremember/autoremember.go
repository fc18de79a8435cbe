// Package autoremember extracts and stores a memory from a tool's result
// when its owning project has memory_save_on_commit enabled. It mirrors
// the middleware that runs after every successful dispatch: most tools
// are excluded outright, the remainder each have a narrow content
// extractor, and storage failures never propagate back to the caller.
package autoremember

import (
	"context"
	"fmt"
	"strings"

	"rlmengine/internal/memory"
)

// toolSpec is the (memory type, extractor key) pair a triggering tool maps to.
type toolSpec struct {
	memoryType memory.Type
	extractor  string
}

// tools lists every tool that should trigger auto-remember, and how.
var tools = map[string]toolSpec{
	"rlm_context_query":   {memory.TypeLearning, "query_result"},
	"rlm_decompose":       {memory.TypeDecision, "decomposition"},
	"rlm_plan":            {memory.TypeDecision, "plan"},
	"rlm_upload_document": {memory.TypeDecision, "upload"},
	"rlm_store_summary":   {memory.TypeLearning, "summary"},
	"rlm_task_complete":   {memory.TypeLearning, "task_completion"},
	"rlm_swarm_create":    {memory.TypeDecision, "swarm"},
}

// excluded tools never trigger auto-remember: memory tools themselves
// (to avoid recursion), meta/utility tools, and read-only tools.
var excluded = map[string]struct{}{
	"rlm_remember": {}, "rlm_recall": {}, "rlm_memories": {}, "rlm_forget": {},
	"rlm_stats": {}, "rlm_settings": {}, "rlm_context": {}, "rlm_sections": {},
	"rlm_clear_context": {}, "rlm_inject": {},
	"rlm_search": {}, "rlm_ask": {}, "rlm_read": {}, "rlm_get_chunk": {},
	"rlm_get_summaries": {}, "rlm_list_templates": {}, "rlm_get_template": {},
	"rlm_shared_context": {}, "rlm_multi_query": {}, "rlm_multi_project_query": {},
	"rlm_orchestrate": {}, "rlm_repl_context": {}, "rlm_load_document": {},
	"rlm_load_project": {},
}

const (
	minContentLength = 20
	maxContentLength = 500
	autoTTLDays      = 30
)

// Store is the subset of memory.Store auto-remember depends on, so tests
// can substitute a fake without a live Mongo collection.
type Store interface {
	Remember(ctx context.Context, projectID string, scope memory.Scope, typ memory.Type, content, category string, ttlDays *int) (*memory.Record, error)
}

// Settings gates whether auto-remember runs at all for a project, and
// which memory types it is allowed to inject.
type Settings struct {
	MemorySaveOnCommit bool
	AllowedTypes       []memory.Type
}

func (s Settings) allows(t memory.Type) bool {
	allowed := s.AllowedTypes
	if allowed == nil {
		allowed = []memory.Type{memory.TypeDecision, memory.TypeLearning}
	}
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

// MaybeRemember extracts a memory from the given tool's result and stores
// it if settings allow. Errors are never returned to the caller of the
// tool it observed; this function only returns an error for test
// visibility into its own storage step.
func MaybeRemember(ctx context.Context, store Store, tool string, params, result map[string]interface{}, projectID string, settings Settings, toolFailed bool) error {
	if !settings.MemorySaveOnCommit {
		return nil
	}
	if _, skip := excluded[tool]; skip {
		return nil
	}
	if toolFailed {
		return nil
	}

	content, memType, ok := extractContent(tool, params, result)
	if !ok {
		return nil
	}
	if !settings.allows(memType) {
		return nil
	}

	ttl := autoTTLDays
	_, err := store.Remember(ctx, projectID, memory.ScopeProject, memType, content, "auto-remember", &ttl)
	return err
}

// extractContent runs the tool-specific extractor and applies the shared
// length bounds. Returns ok=false when the tool has no extractor or the
// extracted content is too short to be worth remembering.
func extractContent(tool string, params, result map[string]interface{}) (string, memory.Type, bool) {
	spec, known := tools[tool]
	if !known {
		return "", "", false
	}

	var content string
	switch spec.extractor {
	case "query_result":
		content = extractQueryResult(params, result)
	case "decomposition":
		content = extractDecomposition(params, result)
	case "plan":
		content = extractPlan(params, result)
	case "upload":
		content = fmt.Sprintf("Uploaded document: %s", stringParam(params, "path", "unknown"))
	case "summary":
		content = fmt.Sprintf("Stored summary for: %s", stringParam(params, "document_path", "unknown"))
	case "task_completion":
		content = extractTaskCompletion(params, result)
	case "swarm":
		content = fmt.Sprintf("Created swarm: %s", stringParam(params, "name", "unnamed"))
	default:
		return "", "", false
	}

	if len(content) < minContentLength {
		return "", "", false
	}
	if len(content) > maxContentLength {
		content = content[:maxContentLength-3] + "..."
	}
	return content, spec.memoryType, true
}

func extractQueryResult(params, result map[string]interface{}) string {
	query := stringParam(params, "query", "")
	sections, _ := result["sections"].([]interface{})
	if len(sections) == 0 {
		return fmt.Sprintf("Queried: '%s' (no results)", query)
	}
	var titles []string
	for i, s := range sections {
		if i >= 2 {
			break
		}
		m, ok := s.(map[string]interface{})
		if !ok {
			continue
		}
		title := stringParam(m, "title", "")
		if len(title) > 50 {
			title = title[:50]
		}
		titles = append(titles, title)
	}
	return fmt.Sprintf("Queried: '%s' → Found: %s", query, strings.Join(titles, ", "))
}

func extractDecomposition(params, result map[string]interface{}) string {
	query := truncate(stringParam(params, "query", ""), 50)
	subQueries, _ := result["sub_queries"].([]interface{})
	return fmt.Sprintf("Decomposed '%s' into %d sub-queries", query, len(subQueries))
}

func extractPlan(params, result map[string]interface{}) string {
	query := truncate(stringParam(params, "query", ""), 50)
	steps, _ := result["steps"].([]interface{})
	return fmt.Sprintf("Created execution plan for '%s' with %d steps", query, len(steps))
}

func extractTaskCompletion(params, result map[string]interface{}) string {
	taskID := stringParam(params, "task_id", "unknown")
	success := true
	if s, ok := result["success"].(bool); ok {
		success = s
	}
	status := "completed"
	if !success {
		status = "failed"
	}
	return fmt.Sprintf("Task %s %s", taskID, status)
}

func stringParam(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return fallback
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
