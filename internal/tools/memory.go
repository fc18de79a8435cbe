package tools

import (
	"rlmengine/internal/domain"
	"rlmengine/internal/engine"
	"rlmengine/internal/memory"
)

// RememberHandler implements rlm_remember: store one memory record.
type RememberHandler struct {
	Store *memory.Store
}

func (h *RememberHandler) Name() string        { return "rlm_remember" }
func (h *RememberHandler) Description() string { return "Store a fact, decision, learning, preference, todo, or context note scoped to this project." }
func (h *RememberHandler) MinAccess() domain.AccessLevel { return domain.AccessEditor }

func (h *RememberHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"content":  stringProp("the text to remember"),
		"scope":    stringProp("AGENT, PROJECT, TEAM, or USER (default PROJECT)"),
		"type":     stringProp("FACT, DECISION, LEARNING, PREFERENCE, TODO, or CONTEXT (default FACT)"),
		"category": stringProp("free-form grouping label"),
		"ttl_days": intProp("days until this memory expires; omit for no expiry"),
	}, "content")
}

func (h *RememberHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	content, err := requiredString(params, "content")
	if err != nil {
		return engine.ToolResult{}, err
	}
	scope := memory.Scope(optionalString(params, "scope", string(memory.ScopeProject)))
	typ := memory.Type(optionalString(params, "type", string(memory.TypeFact)))
	category := optionalString(params, "category", "")

	var ttlDays *int
	if v, ok := params["ttl_days"]; ok {
		n := intParam(params, "ttl_days", 0)
		if _, isNum := v.(float64); isNum {
			ttlDays = &n
		}
	}

	record, err := h.Store.Remember(hc.Context, hc.ProjectID, scope, typ, content, category, ttlDays)
	if err != nil {
		return engine.ToolResult{}, err
	}
	return engine.ToolResult{Text: "remembered: " + record.ID, Data: record}, nil
}

// RecallHandler implements rlm_recall: semantic search over memories.
type RecallHandler struct {
	Store *memory.Store
}

func (h *RecallHandler) Name() string        { return "rlm_recall" }
func (h *RecallHandler) Description() string { return "Rank this project's memories by semantic similarity to a query." }
func (h *RecallHandler) MinAccess() domain.AccessLevel { return domain.AccessViewer }

func (h *RecallHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"query": stringProp("what to recall"),
		"limit": intProp("maximum memories to return (default 5)"),
	}, "query")
}

func (h *RecallHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	query, err := requiredString(params, "query")
	if err != nil {
		return engine.ToolResult{}, err
	}
	limit := intParam(params, "limit", 5)

	records, err := h.Store.Recall(hc.Context, hc.ProjectID, query, limit)
	if err != nil {
		return engine.ToolResult{}, err
	}
	return engine.ToolResult{Text: recallSummary(records), Data: records}, nil
}

func recallSummary(records []memory.Record) string {
	if len(records) == 0 {
		return "no matching memories"
	}
	return records[0].Content
}

// MemoriesHandler implements rlm_memories: list memories with filters.
type MemoriesHandler struct {
	Store *memory.Store
}

func (h *MemoriesHandler) Name() string        { return "rlm_memories" }
func (h *MemoriesHandler) Description() string { return "List this project's memories, optionally filtered by scope and type." }
func (h *MemoriesHandler) MinAccess() domain.AccessLevel { return domain.AccessViewer }

func (h *MemoriesHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"scope":           stringProp("restrict to AGENT, PROJECT, TEAM, or USER"),
		"type":            stringProp("restrict to FACT, DECISION, LEARNING, PREFERENCE, TODO, or CONTEXT"),
		"include_expired": boolProp("include TTL-expired memories (default false)"),
	})
}

func (h *MemoriesHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	scope := memory.Scope(optionalString(params, "scope", ""))
	typ := memory.Type(optionalString(params, "type", ""))
	includeExpired := boolParam(params, "include_expired", false)

	records, err := h.Store.List(hc.Context, hc.ProjectID, scope, typ, includeExpired)
	if err != nil {
		return engine.ToolResult{}, err
	}
	return engine.ToolResult{Text: itoaLen(len(records)) + " memories", Data: records}, nil
}

// ForgetHandler implements rlm_forget: delete one memory by ID.
type ForgetHandler struct {
	Store *memory.Store
}

func (h *ForgetHandler) Name() string        { return "rlm_forget" }
func (h *ForgetHandler) Description() string { return "Delete one memory record by ID." }
func (h *ForgetHandler) MinAccess() domain.AccessLevel { return domain.AccessEditor }

func (h *ForgetHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"memory_id": stringProp("the memory record to delete"),
	}, "memory_id")
}

func (h *ForgetHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	memoryID, err := requiredString(params, "memory_id")
	if err != nil {
		return engine.ToolResult{}, err
	}
	if err := h.Store.Forget(hc.Context, hc.ProjectID, memoryID); err != nil {
		return engine.ToolResult{}, err
	}
	return engine.ToolResult{Text: "forgotten: " + memoryID}, nil
}

func itoaLen(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
