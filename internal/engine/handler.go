// Package engine implements the tool dispatcher that sits between the MCP
// and REST transports and the domain packages: a compile-time registry of
// Handlers, access-level enforcement, and usage accounting.
package engine

import (
	"context"

	"rlmengine/internal/domain"
	"rlmengine/internal/index"
)

// ToolResult is the tagged-union shape every Handler returns. Exactly one
// of Text/Data is meaningful for a given tool; transports render whichever
// the handler populated.
type ToolResult struct {
	Text string
	Data interface{}
}

// HandlerContext carries everything a Handler needs about the calling
// principal and project, loaded once per dispatch by the Dispatcher.
type HandlerContext struct {
	Context       context.Context
	ProjectID     string
	UserID        string
	TeamID        string
	Plan          domain.Plan
	AccessLevel   domain.AccessLevel
	Settings      map[string]string
	SessionContext string
	TipsShown     bool

	indexLoader func(ctx context.Context, projectID string) (*index.DocumentIndex, error)
	loadedIndex *index.DocumentIndex
}

// Index lazily loads and caches this project's DocumentIndex for the
// lifetime of one dispatch.
func (h *HandlerContext) Index() (*index.DocumentIndex, error) {
	if h.loadedIndex != nil {
		return h.loadedIndex, nil
	}
	if h.indexLoader == nil {
		return nil, nil
	}
	idx, err := h.indexLoader(h.Context, h.ProjectID)
	if err != nil {
		return nil, err
	}
	h.loadedIndex = idx
	return idx, nil
}

// NewHandlerContext builds a HandlerContext with its lazy index loader.
func NewHandlerContext(ctx context.Context, loader func(context.Context, string) (*index.DocumentIndex, error)) *HandlerContext {
	return &HandlerContext{Context: ctx, indexLoader: loader}
}

// RequiredAccess is the minimum access level a tool demands of the caller.
type RequiredAccess domain.AccessLevel

// Handler is one invocable tool. Name and InputSchema describe it for
// tools/list; Invoke executes it. MinAccess gates dispatch: a caller whose
// AccessLevel is below MinAccess never reaches Invoke.
type Handler interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	MinAccess() domain.AccessLevel
	Invoke(hc *HandlerContext, params map[string]interface{}) (ToolResult, error)
}

var accessRank = map[domain.AccessLevel]int{
	domain.AccessNone:   0,
	domain.AccessViewer: 1,
	domain.AccessEditor: 2,
	domain.AccessAdmin:  3,
}

// accessSatisfies reports whether held meets or exceeds required.
func accessSatisfies(held, required domain.AccessLevel) bool {
	return accessRank[held] >= accessRank[required]
}
