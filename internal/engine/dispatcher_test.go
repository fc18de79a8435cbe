package engine

import (
	"context"
	"testing"

	"rlmengine/internal/apperr"
	"rlmengine/internal/domain"
)

type stubHandler struct {
	name      string
	minAccess domain.AccessLevel
	result    ToolResult
	err       error
	calls     int
}

func (s *stubHandler) Name() string                             { return s.name }
func (s *stubHandler) Description() string                      { return "stub" }
func (s *stubHandler) InputSchema() map[string]interface{}       { return map[string]interface{}{} }
func (s *stubHandler) MinAccess() domain.AccessLevel             { return s.minAccess }
func (s *stubHandler) Invoke(hc *HandlerContext, params map[string]interface{}) (ToolResult, error) {
	s.calls++
	return s.result, s.err
}

func newTestContext() *HandlerContext {
	return &HandlerContext{Context: context.Background(), ProjectID: "proj1", AccessLevel: domain.AccessViewer}
}

func TestDispatchInvokesRegisteredHandler(t *testing.T) {
	h := &stubHandler{name: "rlm_read", minAccess: domain.AccessViewer, result: ToolResult{Text: "ok"}}
	d := NewDispatcher([]Handler{h}, nil, nil)
	hc := newTestContext()
	result, err := d.Dispatch(hc, "rlm_read", nil, ProjectSettings{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "ok" {
		t.Fatalf("expected handler result passthrough, got %+v", result)
	}
	if h.calls != 1 {
		t.Fatalf("expected handler invoked once, got %d", h.calls)
	}
}

func TestDispatchRejectsUnknownTool(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	_, err := d.Dispatch(newTestContext(), "rlm_missing", nil, ProjectSettings{})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for unknown tool, got %v", err)
	}
}

func TestDispatchRejectsInsufficientAccess(t *testing.T) {
	h := &stubHandler{name: "rlm_write", minAccess: domain.AccessEditor}
	d := NewDispatcher([]Handler{h}, nil, nil)
	hc := newTestContext() // AccessViewer
	_, err := d.Dispatch(hc, "rlm_write", nil, ProjectSettings{})
	if apperr.KindOf(err) != apperr.KindAccess {
		t.Fatalf("expected access error, got %v", err)
	}
	if h.calls != 0 {
		t.Fatalf("expected handler not invoked when access is insufficient")
	}
}

func TestDispatchAllowsSufficientAccess(t *testing.T) {
	h := &stubHandler{name: "rlm_write", minAccess: domain.AccessEditor}
	d := NewDispatcher([]Handler{h}, nil, nil)
	hc := newTestContext()
	hc.AccessLevel = domain.AccessAdmin
	_, err := d.Dispatch(hc, "rlm_write", nil, ProjectSettings{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.calls != 1 {
		t.Fatalf("expected handler invoked")
	}
}

func TestNewDispatcherPanicsOnDuplicateName(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on duplicate handler name")
		}
	}()
	h1 := &stubHandler{name: "rlm_dup"}
	h2 := &stubHandler{name: "rlm_dup"}
	NewDispatcher([]Handler{h1, h2}, nil, nil)
}

func TestToolsReturnsAllRegistered(t *testing.T) {
	h1 := &stubHandler{name: "a"}
	h2 := &stubHandler{name: "b"}
	d := NewDispatcher([]Handler{h1, h2}, nil, nil)
	if len(d.Tools()) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(d.Tools()))
	}
}
