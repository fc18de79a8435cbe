// Package mcptransport wires the Engine Dispatcher's tool registry into
// the official Model Context Protocol SDK: one mcp.Server exposing every
// tool for project-scoped calls, and a second, narrower mcp.Server
// exposing only rlm_multi_project_query for the team-scoped endpoint.
package mcptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"rlmengine/internal/apperr"
	"rlmengine/internal/engine"
)

// multiProjectQueryTool is the only tool exposed on the team-scoped URL
// shape; every other tool requires a project-scoped URL.
const multiProjectQueryTool = "rlm_multi_project_query"

// Scope selects which URL shape served this request, which in turn
// selects which of Server's two underlying mcp.Server instances answers
// it.
type Scope int

const (
	ScopeProject Scope = iota
	ScopeTeam
)

// Server adapts an engine.Dispatcher's tool registry to the MCP SDK,
// building one mcp.Server per Scope at construction time.
type Server struct {
	dispatcher *engine.Dispatcher
	projectMCP *mcp.Server
	teamMCP    *mcp.Server
}

// NewServer builds a Server bound to dispatcher, registering every
// dispatcher tool on the project-scoped mcp.Server and only
// rlm_multi_project_query on the team-scoped one.
func NewServer(dispatcher *engine.Dispatcher, name, version string) *Server {
	impl := &mcp.Implementation{Name: name, Version: version}
	opts := &mcp.ServerOptions{HasTools: true}

	s := &Server{
		dispatcher: dispatcher,
		projectMCP: mcp.NewServer(impl, opts),
		teamMCP:    mcp.NewServer(impl, opts),
	}

	for _, h := range toolsForScope(dispatcher.Tools(), ScopeProject) {
		s.registerTool(s.projectMCP, h)
	}
	for _, h := range toolsForScope(dispatcher.Tools(), ScopeTeam) {
		s.registerTool(s.teamMCP, h)
	}

	return s
}

// toolsForScope filters the dispatcher's full tool set down to what a
// given URL shape exposes: every tool for ScopeProject, only
// rlm_multi_project_query for ScopeTeam.
func toolsForScope(handlers []engine.Handler, scope Scope) []engine.Handler {
	if scope == ScopeProject {
		return handlers
	}
	var out []engine.Handler
	for _, h := range handlers {
		if h.Name() == multiProjectQueryTool {
			out = append(out, h)
		}
	}
	return out
}

// registerTool adapts one engine.Handler into an mcp.Tool bound to
// server, recovering the calling HandlerContext/ProjectSettings that
// WithHandlerContext stashed on the request context.
func (s *Server) registerTool(server *mcp.Server, h engine.Handler) {
	tool := &mcp.Tool{
		Name:        h.Name(),
		Description: h.Description(),
		InputSchema: toJSONSchema(h.InputSchema()),
	}

	server.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		hc, settings, ok := HandlerContextFrom(ctx)
		if !ok {
			return createErrorResult("no request context available for tool call"), nil
		}
		args, err := extractArguments(req)
		if err != nil {
			return createErrorResult(err.Error()), nil
		}

		result, err := s.dispatcher.Dispatch(hc, h.Name(), args, settings)
		if err != nil {
			return createErrorResult(apperr.SanitizedMessage(err)), nil
		}
		return toCallToolResult(result), nil
	})
}

// toJSONSchema converts an engine.Handler's plain JSON-Schema map (the
// shape every tool's InputSchema returns) into the SDK's typed Schema via
// a JSON round-trip, since the two shapes are structurally identical.
func toJSONSchema(schema map[string]interface{}) *jsonschema.Schema {
	raw, err := json.Marshal(schema)
	if err != nil {
		return &jsonschema.Schema{Type: "object"}
	}
	var out jsonschema.Schema
	if err := json.Unmarshal(raw, &out); err != nil {
		return &jsonschema.Schema{Type: "object"}
	}
	return &out
}

// extractArguments recovers a tool call's arguments as a plain map,
// tolerating either the SDK having already decoded them or leaving them
// as raw JSON.
func extractArguments(req *mcp.CallToolRequest) (map[string]interface{}, error) {
	if req.Params.Arguments == nil {
		return make(map[string]interface{}), nil
	}
	if args, ok := req.Params.Arguments.(map[string]interface{}); ok {
		return args, nil
	}
	raw, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "arguments must be serializable")
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperr.New(apperr.KindValidation, "arguments must be a JSON object")
	}
	return out, nil
}

// toCallToolResult renders an engine.ToolResult as MCP content: the
// result's text, with any structured Data appended as a JSON block so
// clients that only read text content still see it.
func toCallToolResult(result engine.ToolResult) *mcp.CallToolResult {
	text := result.Text
	if result.Data != nil {
		if b, err := json.Marshal(result.Data); err == nil {
			text += "\n\n" + string(b)
		}
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func createErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "error: " + message}},
		IsError: true,
	}
}

// Handler returns the project-scoped streamable HTTP handler, stateless
// so one Router can serve concurrent project-scoped requests without
// pinning a session to a connection.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return s.projectMCP },
		&mcp.StreamableHTTPOptions{Stateless: true, JSONResponse: true},
	)
}

// TeamHandler returns the team-scoped streamable HTTP handler, exposing
// only rlm_multi_project_query.
func (s *Server) TeamHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return s.teamMCP },
		&mcp.StreamableHTTPOptions{Stateless: true, JSONResponse: true},
	)
}
