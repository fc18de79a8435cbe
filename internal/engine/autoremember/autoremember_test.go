package autoremember

import (
	"context"
	"testing"

	"rlmengine/internal/memory"
)

type fakeStore struct {
	calls []struct {
		content string
		typ     memory.Type
	}
}

func (f *fakeStore) Remember(_ context.Context, _ string, _ memory.Scope, typ memory.Type, content, _ string, _ *int) (*memory.Record, error) {
	f.calls = append(f.calls, struct {
		content string
		typ     memory.Type
	}{content, typ})
	return &memory.Record{Content: content, Type: typ}, nil
}

func TestMaybeRememberSkipsWhenFeatureDisabled(t *testing.T) {
	store := &fakeStore{}
	err := MaybeRemember(context.Background(), store, "rlm_plan", map[string]interface{}{"query": "how does auth work here and there"}, map[string]interface{}{"steps": []interface{}{1, 2, 3}}, "proj1", Settings{MemorySaveOnCommit: false}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("expected no storage calls when disabled")
	}
}

func TestMaybeRememberSkipsExcludedTool(t *testing.T) {
	store := &fakeStore{}
	err := MaybeRemember(context.Background(), store, "rlm_recall", nil, nil, "proj1", Settings{MemorySaveOnCommit: true}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("expected rlm_recall to be excluded")
	}
}

func TestMaybeRememberSkipsOnToolFailure(t *testing.T) {
	store := &fakeStore{}
	err := MaybeRemember(context.Background(), store, "rlm_plan", map[string]interface{}{"query": "long enough query for plan extraction"}, map[string]interface{}{"steps": []interface{}{1}}, "proj1", Settings{MemorySaveOnCommit: true}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("expected no storage call when the tool failed")
	}
}

func TestMaybeRememberStoresPlanDecision(t *testing.T) {
	store := &fakeStore{}
	params := map[string]interface{}{"query": "how should we architect the new ingestion pipeline end to end"}
	result := map[string]interface{}{"steps": []interface{}{"a", "b", "c"}}
	err := MaybeRemember(context.Background(), store, "rlm_plan", params, result, "proj1", Settings{MemorySaveOnCommit: true}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.calls) != 1 {
		t.Fatalf("expected exactly one storage call, got %d", len(store.calls))
	}
	if store.calls[0].typ != memory.TypeDecision {
		t.Fatalf("expected DECISION type, got %v", store.calls[0].typ)
	}
}

func TestMaybeRememberRejectsDisallowedType(t *testing.T) {
	store := &fakeStore{}
	params := map[string]interface{}{"query": "how should we architect the new ingestion pipeline end to end"}
	result := map[string]interface{}{"steps": []interface{}{"a", "b"}}
	settings := Settings{MemorySaveOnCommit: true, AllowedTypes: []memory.Type{memory.TypeLearning}}
	err := MaybeRemember(context.Background(), store, "rlm_plan", params, result, "proj1", settings, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("expected DECISION to be rejected when only LEARNING is allowed")
	}
}

func TestMaybeRememberSkipsShortContent(t *testing.T) {
	store := &fakeStore{}
	params := map[string]interface{}{"task_id": "a"}
	result := map[string]interface{}{"success": true}
	err := MaybeRemember(context.Background(), store, "rlm_task_complete", params, result, "proj1", Settings{MemorySaveOnCommit: true}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("expected 'Task a completed' (16 chars) to fall below the minimum length bar")
	}
}
