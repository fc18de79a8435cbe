package engine

import (
	"encoding/json"
	"time"

	"rlmengine/internal/apperr"
	"rlmengine/internal/domain"
	"rlmengine/internal/engine/autoremember"
	"rlmengine/internal/memory"
)

// Dispatcher holds the compile-time tool registry and dispatches calls to
// it, enforcing access level and recording usage. This is "closed
// polymorphism": the registry is built once at startup from a fixed slice
// of Handlers, not dynamically extended at runtime.
type Dispatcher struct {
	handlers     map[string]Handler
	usage        *UsageLogger
	autoRemember autoremember.Store
}

// NewDispatcher builds a Dispatcher from a fixed set of Handlers. Panics on
// a duplicate tool name: that is a wiring bug caught at startup, not a
// runtime condition to recover from.
func NewDispatcher(handlers []Handler, usage *UsageLogger, autoRememberStore autoremember.Store) *Dispatcher {
	registry := make(map[string]Handler, len(handlers))
	for _, h := range handlers {
		if _, exists := registry[h.Name()]; exists {
			panic("engine: duplicate handler registered for tool " + h.Name())
		}
		registry[h.Name()] = h
	}
	return &Dispatcher{handlers: registry, usage: usage, autoRemember: autoRememberStore}
}

// Tools returns every registered Handler, for tools/list.
func (d *Dispatcher) Tools() []Handler {
	out := make([]Handler, 0, len(d.handlers))
	for _, h := range d.handlers {
		out = append(out, h)
	}
	return out
}

// ProjectSettings is the subset of domain.Project the dispatcher needs for
// auto-remember gating, decoupled from the storage layer.
type ProjectSettings struct {
	MemorySaveOnCommit bool
	MemoryInjectTypes  []string
}

// Dispatch resolves tool by name, enforces hc.AccessLevel against the
// handler's MinAccess, invokes it, runs auto-remember on success, and
// records the outcome through d.usage. Every step after resolution is
// best-effort around the handler's own result: usage logging and
// auto-remember failures never override the handler's return value.
func (d *Dispatcher) Dispatch(hc *HandlerContext, tool string, params map[string]interface{}, settings ProjectSettings) (ToolResult, error) {
	start := time.Now()

	handler, ok := d.handlers[tool]
	if !ok {
		err := apperr.New(apperr.KindValidation, "unknown tool: "+tool)
		d.usage.Record(hc.Context, hc.ProjectID, hc.UserID, tool, false, err, time.Since(start))
		return ToolResult{}, err
	}

	if !accessSatisfies(hc.AccessLevel, handler.MinAccess()) {
		err := apperr.New(apperr.KindAccess, "insufficient access level for tool: "+tool)
		d.usage.Record(hc.Context, hc.ProjectID, hc.UserID, tool, false, err, time.Since(start))
		return ToolResult{}, err
	}

	result, err := handler.Invoke(hc, params)
	d.usage.Record(hc.Context, hc.ProjectID, hc.UserID, tool, err == nil, err, time.Since(start))

	if err == nil && d.autoRemember != nil {
		allowedTypes := toMemoryTypes(settings.MemoryInjectTypes)
		resultData, _ := toResultMap(result.Data)
		_ = autoremember.MaybeRemember(hc.Context, d.autoRemember, tool, params, resultData, hc.ProjectID,
			autoremember.Settings{MemorySaveOnCommit: settings.MemorySaveOnCommit, AllowedTypes: allowedTypes}, false)
	}

	return result, err
}

func toMemoryTypes(raw []string) []memory.Type {
	if raw == nil {
		return nil
	}
	out := make([]memory.Type, 0, len(raw))
	for _, r := range raw {
		out = append(out, memory.Type(r))
	}
	return out
}

// toResultMap normalizes a handler's Data payload (any Go value, typically
// a struct) into the map shape auto-remember's extractors expect, via a
// JSON round-trip. Non-object payloads yield an empty map.
func toResultMap(data interface{}) (map[string]interface{}, error) {
	if data == nil {
		return map[string]interface{}{}, nil
	}
	if m, ok := data.(map[string]interface{}); ok {
		return m, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return map[string]interface{}{}, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]interface{}{}, nil
	}
	return m, nil
}

// AccessForWrite is the minimum access a mutating tool should declare.
const AccessForWrite = domain.AccessEditor

// AccessForAdmin is the minimum access swarm-create and broadcast-scope
// state writes should declare.
const AccessForAdmin = domain.AccessAdmin
