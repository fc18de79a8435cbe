// Package tools implements the concrete engine.Handler tools exposed over
// MCP and REST: memory CRUD, hybrid search and context assembly, stored
// summaries, swarm coordination, and reindex triggering. Each Handler is a
// thin adapter between the dispatcher's generic params map and a
// package's own typed API.
package tools

import (
	"rlmengine/internal/apperr"
)

func stringParam(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func requiredString(params map[string]interface{}, key string) (string, error) {
	s, ok := stringParam(params, key)
	if !ok || s == "" {
		return "", apperr.New(apperr.KindValidation, "missing required parameter: "+key)
	}
	return s, nil
}

func optionalString(params map[string]interface{}, key, fallback string) string {
	if s, ok := stringParam(params, key); ok {
		return s
	}
	return fallback
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return fallback
	}
}

func boolParam(params map[string]interface{}, key string, fallback bool) bool {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}

func stringSliceParam(params map[string]interface{}, key string) []string {
	v, ok := params[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// objectSchema is the small literal-builder used for every tool's
// InputSchema: a plain JSON-Schema object description, matching the shape
// mcptransport.Server serves verbatim in tools/list.
func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func boolProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": description}
}

func arrayProp(itemType, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": itemType},
		"description": description,
	}
}
