package mcptransport

import (
	"context"

	"rlmengine/internal/engine"
)

// requestStateKey is the context key under which the resolved
// HandlerContext and ProjectSettings for one HTTP request are stashed
// before the request reaches the SDK's streamable handler, so tool
// callbacks (which only receive a context.Context, not the original
// *http.Request) can recover them.
type requestStateKey struct{}

type requestState struct {
	hc       *engine.HandlerContext
	settings engine.ProjectSettings
}

// WithHandlerContext attaches hc and settings to ctx for later retrieval
// by a tool handler running under the MCP SDK's request lifecycle.
func WithHandlerContext(ctx context.Context, hc *engine.HandlerContext, settings engine.ProjectSettings) context.Context {
	return context.WithValue(ctx, requestStateKey{}, requestState{hc: hc, settings: settings})
}

// HandlerContextFrom recovers the HandlerContext and ProjectSettings
// WithHandlerContext attached to ctx, or the zero value and false if
// none was ever attached.
func HandlerContextFrom(ctx context.Context) (*engine.HandlerContext, engine.ProjectSettings, bool) {
	state, ok := ctx.Value(requestStateKey{}).(requestState)
	if !ok {
		return nil, engine.ProjectSettings{}, false
	}
	return state.hc, state.settings, true
}
