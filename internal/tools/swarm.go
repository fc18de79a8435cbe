package tools

import (
	"time"

	"rlmengine/internal/apperr"
	"rlmengine/internal/domain"
	"rlmengine/internal/engine"
	"rlmengine/internal/swarm"
)

const defaultClaimTTL = 5 * time.Minute

// SwarmClaimHandler implements rlm_swarm_claim: acquire exclusive access
// to a resource within a swarm.
type SwarmClaimHandler struct {
	Claims *swarm.ClaimStore
}

func (h *SwarmClaimHandler) Name() string        { return "rlm_swarm_claim" }
func (h *SwarmClaimHandler) Description() string { return "Acquire exclusive access to a resource within a swarm." }
func (h *SwarmClaimHandler) MinAccess() domain.AccessLevel { return domain.AccessEditor }

func (h *SwarmClaimHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"swarm_id":      stringProp("the swarm to claim within"),
		"resource_type": stringProp("the kind of resource being claimed"),
		"resource_id":   stringProp("the specific resource being claimed"),
		"ttl_seconds":   intProp("how long the claim is held before it expires (default 300)"),
	}, "swarm_id", "resource_type", "resource_id")
}

func (h *SwarmClaimHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	swarmID, err := requiredString(params, "swarm_id")
	if err != nil {
		return engine.ToolResult{}, err
	}
	resourceType, err := requiredString(params, "resource_type")
	if err != nil {
		return engine.ToolResult{}, err
	}
	resourceID, err := requiredString(params, "resource_id")
	if err != nil {
		return engine.ToolResult{}, err
	}
	ttl := defaultClaimTTL
	if seconds := intParam(params, "ttl_seconds", 0); seconds > 0 {
		ttl = time.Duration(seconds) * time.Second
	}

	result, err := h.Claims.Acquire(hc.Context, swarmID, hc.UserID, resourceType, resourceID, ttl)
	if err != nil {
		return engine.ToolResult{}, err
	}
	text := "not acquired: held by " + result.HeldBy
	if result.Extended {
		text = "extended"
	} else if result.Acquired {
		text = "acquired"
	}
	return engine.ToolResult{Text: text, Data: result}, nil
}

// SwarmReleaseHandler implements rlm_swarm_release: release a held claim.
type SwarmReleaseHandler struct {
	Claims *swarm.ClaimStore
}

func (h *SwarmReleaseHandler) Name() string        { return "rlm_swarm_release" }
func (h *SwarmReleaseHandler) Description() string { return "Release a previously acquired resource claim." }
func (h *SwarmReleaseHandler) MinAccess() domain.AccessLevel { return domain.AccessEditor }

func (h *SwarmReleaseHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"claim_id":      stringProp("the claim to release"),
		"resource_type": stringProp("the kind of resource held"),
		"resource_id":   stringProp("the specific resource held"),
	}, "claim_id", "resource_type", "resource_id")
}

func (h *SwarmReleaseHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	claimID, err := requiredString(params, "claim_id")
	if err != nil {
		return engine.ToolResult{}, err
	}
	resourceType, err := requiredString(params, "resource_type")
	if err != nil {
		return engine.ToolResult{}, err
	}
	resourceID, err := requiredString(params, "resource_id")
	if err != nil {
		return engine.ToolResult{}, err
	}

	if err := h.Claims.Release(hc.Context, hc.UserID, claimID, resourceType, resourceID); err != nil {
		return engine.ToolResult{}, err
	}
	return engine.ToolResult{Text: "released"}, nil
}

// SwarmStateGetHandler implements rlm_swarm_state_get: read one shared
// state key.
type SwarmStateGetHandler struct {
	State *swarm.StateStore
}

func (h *SwarmStateGetHandler) Name() string        { return "rlm_swarm_state_get" }
func (h *SwarmStateGetHandler) Description() string { return "Read a shared state key within a swarm." }
func (h *SwarmStateGetHandler) MinAccess() domain.AccessLevel { return domain.AccessViewer }

func (h *SwarmStateGetHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"swarm_id": stringProp("the swarm to read from"),
		"key":      stringProp("the state key"),
	}, "swarm_id", "key")
}

func (h *SwarmStateGetHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	swarmID, err := requiredString(params, "swarm_id")
	if err != nil {
		return engine.ToolResult{}, err
	}
	key, err := requiredString(params, "key")
	if err != nil {
		return engine.ToolResult{}, err
	}

	entry, err := h.State.Get(hc.Context, swarmID, key)
	if err != nil {
		return engine.ToolResult{}, err
	}
	return engine.ToolResult{Text: "state fetched", Data: entry}, nil
}

// SwarmStateSetHandler implements rlm_swarm_state_set: write a shared
// state key, optionally gated by an optimistic-concurrency version check.
// Treated as broadcast-scope per the component design, so it demands
// ADMIN access.
type SwarmStateSetHandler struct {
	State *swarm.StateStore
}

func (h *SwarmStateSetHandler) Name() string        { return "rlm_swarm_state_set" }
func (h *SwarmStateSetHandler) Description() string { return "Write a shared state key within a swarm, broadcasting it to every agent." }
func (h *SwarmStateSetHandler) MinAccess() domain.AccessLevel { return domain.AccessAdmin }

func (h *SwarmStateSetHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"swarm_id":         stringProp("the swarm to write to"),
		"key":              stringProp("the state key"),
		"value":            map[string]interface{}{"description": "the value to store; any JSON type"},
		"expected_version":  intProp("optimistic-concurrency version to require; omit to write unconditionally"),
		"ttl_seconds":      intProp("expire this entry after this many seconds; omit for no expiry"),
	}, "swarm_id", "key", "value")
}

func (h *SwarmStateSetHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	swarmID, err := requiredString(params, "swarm_id")
	if err != nil {
		return engine.ToolResult{}, err
	}
	key, err := requiredString(params, "key")
	if err != nil {
		return engine.ToolResult{}, err
	}
	value, ok := params["value"]
	if !ok {
		return engine.ToolResult{}, apperr.New(apperr.KindValidation, "missing required parameter: value")
	}

	var expectedVersion *int64
	if _, present := params["expected_version"]; present {
		v := int64(intParam(params, "expected_version", 0))
		expectedVersion = &v
	}
	var ttl *time.Duration
	if seconds := intParam(params, "ttl_seconds", 0); seconds > 0 {
		d := time.Duration(seconds) * time.Second
		ttl = &d
	}

	entry, err := h.State.Set(hc.Context, swarmID, hc.UserID, key, value, expectedVersion, ttl)
	if err != nil {
		return engine.ToolResult{}, err
	}
	return engine.ToolResult{Text: "state written", Data: entry}, nil
}

// SwarmTaskCreateHandler implements rlm_swarm_task_create: enqueue a new
// task, optionally depending on others.
type SwarmTaskCreateHandler struct {
	Tasks *swarm.TaskStore
}

func (h *SwarmTaskCreateHandler) Name() string        { return "rlm_swarm_task_create" }
func (h *SwarmTaskCreateHandler) Description() string { return "Create a task in a swarm's dependency-aware work queue." }
func (h *SwarmTaskCreateHandler) MinAccess() domain.AccessLevel { return domain.AccessAdmin }

func (h *SwarmTaskCreateHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"swarm_id":   stringProp("the swarm to create the task in"),
		"title":      stringProp("the task's title"),
		"priority":   intProp("higher claims first (default 0)"),
		"depends_on": arrayProp("string", "task IDs that must complete before this one is claimable"),
	}, "swarm_id", "title")
}

func (h *SwarmTaskCreateHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	swarmID, err := requiredString(params, "swarm_id")
	if err != nil {
		return engine.ToolResult{}, err
	}
	title, err := requiredString(params, "title")
	if err != nil {
		return engine.ToolResult{}, err
	}
	priority := intParam(params, "priority", 0)
	dependsOn := stringSliceParam(params, "depends_on")

	task, err := h.Tasks.Create(hc.Context, swarmID, title, priority, nil, dependsOn)
	if err != nil {
		return engine.ToolResult{}, err
	}
	return engine.ToolResult{Text: "created: " + task.ID, Data: task}, nil
}

// SwarmTaskClaimHandler implements rlm_swarm_task_claim: claim the
// specific task named by the required task_id. This tool does not pick
// the highest-priority claimable task on its own.
type SwarmTaskClaimHandler struct {
	Tasks *swarm.TaskStore
}

func (h *SwarmTaskClaimHandler) Name() string        { return "rlm_swarm_task_claim" }
func (h *SwarmTaskClaimHandler) Description() string { return "Claim a pending task from a swarm's work queue." }
func (h *SwarmTaskClaimHandler) MinAccess() domain.AccessLevel { return domain.AccessEditor }

func (h *SwarmTaskClaimHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"swarm_id": stringProp("the swarm to claim from"),
		"task_id":  stringProp("a specific task to claim"),
	}, "swarm_id", "task_id")
}

func (h *SwarmTaskClaimHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	swarmID, err := requiredString(params, "swarm_id")
	if err != nil {
		return engine.ToolResult{}, err
	}
	taskID, err := requiredString(params, "task_id")
	if err != nil {
		return engine.ToolResult{}, err
	}

	task, err := h.Tasks.Claim(hc.Context, swarmID, hc.UserID, taskID)
	if err != nil {
		return engine.ToolResult{}, err
	}
	return engine.ToolResult{Text: "claimed: " + task.ID, Data: task}, nil
}

// SwarmTaskCompleteHandler implements rlm_swarm_task_complete: mark a
// claimed task finished, unblocking any tasks whose dependencies are now
// all satisfied.
type SwarmTaskCompleteHandler struct {
	Tasks *swarm.TaskStore
}

func (h *SwarmTaskCompleteHandler) Name() string        { return "rlm_swarm_task_complete" }
func (h *SwarmTaskCompleteHandler) Description() string { return "Mark a claimed swarm task as completed or failed." }
func (h *SwarmTaskCompleteHandler) MinAccess() domain.AccessLevel { return domain.AccessEditor }

func (h *SwarmTaskCompleteHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"swarm_id": stringProp("the swarm the task belongs to"),
		"task_id":  stringProp("the task to complete"),
		"success":  boolProp("true for COMPLETED, false for FAILED (default true)"),
	}, "swarm_id", "task_id")
}

func (h *SwarmTaskCompleteHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	swarmID, err := requiredString(params, "swarm_id")
	if err != nil {
		return engine.ToolResult{}, err
	}
	taskID, err := requiredString(params, "task_id")
	if err != nil {
		return engine.ToolResult{}, err
	}
	success := boolParam(params, "success", true)

	unblocked, err := h.Tasks.Complete(hc.Context, swarmID, hc.UserID, taskID, success)
	if err != nil {
		return engine.ToolResult{}, err
	}
	return engine.ToolResult{Text: itoaLen(len(unblocked)) + " tasks unblocked", Data: unblocked}, nil
}
