// Package restapi mounts the project-scoped REST surface alongside the
// MCP transport: a lighter {tool, params} envelope, context/limits/stats
// reads, reindex job submission, SSE framing of a single tool call, the
// well-known discovery documents, and the Integrator Admin CRUD surface.
package restapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"rlmengine/internal/apperr"
	"rlmengine/internal/engine"
	"rlmengine/internal/mcptransport"
)

// Admitter resolves an inbound credential into a HandlerContext, keeping
// the router decoupled from internal/admission's concrete Pipeline and
// its Mongo/Redis-backed resolvers.
type Admitter interface {
	Admit(ctx context.Context, rawKey, projectID string) (*engine.HandlerContext, engine.ProjectSettings, error)
}

// Router builds and owns the gin engine for the REST surface.
type Router struct {
	engine     *gin.Engine
	dispatcher *engine.Dispatcher
	mcpServer  *mcptransport.Server
	admin      *AdminHandler
	limits     LimitsProvider
	stats      StatsProvider
	reindex    ReindexEnqueuer
	context    ContextProvider
	admitter   Admitter
}

// WithProviders attaches the optional REST read-surface providers
// (limits/stats/reindex/context). Each is independently optional; an
// unconfigured provider makes its endpoint answer 501.
func (r *Router) WithProviders(limits LimitsProvider, stats StatsProvider, reindex ReindexEnqueuer, context ContextProvider) *Router {
	r.limits = limits
	r.stats = stats
	r.reindex = reindex
	r.context = context
	return r
}

// WithAdmitter attaches the admission pipeline that resolves every
// project-scoped request's Authorization header into a HandlerContext.
// Without one, requests fall back to an unauthenticated stub context
// (used by tests that exercise routing without a live Mongo/Redis stack).
func (r *Router) WithAdmitter(a Admitter) *Router {
	r.admitter = a
	return r
}

// NewRouter builds the REST router, wiring every handler group described
// in the external-interfaces section: the v1 project surface, the
// integrator admin surface, and the well-known documents.
func NewRouter(dispatcher *engine.Dispatcher, mcpServer *mcptransport.Server, admin *AdminHandler) *Router {
	gin.SetMode(gin.ReleaseMode)
	g := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Snipara-Signature"}
	g.Use(cors.New(corsConfig))

	router := &Router{engine: g, dispatcher: dispatcher, mcpServer: mcpServer, admin: admin}

	g.GET("/health", router.handleHealth)
	registerWellKnown(g)

	v1 := g.Group("/v1/:project")
	v1.Use(router.loadProjectContext)
	{
		v1.POST("/mcp", router.handleMCPCall)
		if mcpServer != nil {
			v1.Any("/mcp/rpc", gin.WrapH(mcpServer.Handler()))
		}
		v1.GET("/context", router.handleContext)
		v1.GET("/limits", router.handleLimits)
		v1.GET("/stats", router.handleStats)
		v1.POST("/reindex", router.handleReindexStart)
		v1.GET("/reindex/:job_id", router.handleReindexPoll)
		v1.GET("/mcp/sse", router.handleSSE)
	}

	team := g.Group("/v1/team/:project")
	team.Use(router.loadProjectContext)
	{
		if mcpServer != nil {
			team.Any("/mcp/rpc", gin.WrapH(mcpServer.TeamHandler()))
		}
	}

	if admin != nil {
		integrator := g.Group("/v1/integrator")
		admin.RegisterRoutes(integrator)
	}

	return router
}

// ServeHTTP implements http.Handler so Router can be passed directly to
// http.Server.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}

func (r *Router) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "rlmengine"})
}

// projectContextKey and projectSettingsKey are the gin context keys
// loadProjectContext stores the resolved *engine.HandlerContext and
// engine.ProjectSettings under.
const (
	projectContextKey  = "rlm.handlerContext"
	projectSettingsKey = "rlm.projectSettings"
)

// loadProjectContext resolves :project into a HandlerContext via the
// configured Admitter. With no Admitter configured it falls back to an
// unauthenticated stub context, so routing can be exercised without a
// live Mongo/Redis stack.
func (r *Router) loadProjectContext(c *gin.Context) {
	projectID := c.Param("project")

	if r.admitter != nil {
		rawKey := bearerToken(c.GetHeader("Authorization"))
		hc, settings, err := r.admitter.Admit(c.Request.Context(), rawKey, projectID)
		if err != nil {
			writeAppError(c, err)
			c.Abort()
			return
		}
		c.Set(projectContextKey, hc)
		c.Set(projectSettingsKey, settings)
		c.Request = c.Request.WithContext(mcptransport.WithHandlerContext(c.Request.Context(), hc, settings))
		c.Next()
		return
	}

	hc, ok := c.Get(projectContextKey)
	if !ok {
		hc = &engine.HandlerContext{Context: c.Request.Context(), ProjectID: projectID}
		c.Set(projectContextKey, hc)
	}
	typedHC, _ := hc.(*engine.HandlerContext)
	c.Request = c.Request.WithContext(mcptransport.WithHandlerContext(c.Request.Context(), typedHC, projectSettingsFrom(c)))
	c.Next()
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimPrefix(header, prefix)
	}
	return header
}

func handlerContextFrom(c *gin.Context) *engine.HandlerContext {
	hc, _ := c.Get(projectContextKey)
	ctx, _ := hc.(*engine.HandlerContext)
	return ctx
}

// projectSettingsFrom returns the ProjectSettings loadProjectContext
// resolved for this request, or a zero value when no Admitter is
// configured (the unauthenticated-stub routing path).
func projectSettingsFrom(c *gin.Context) engine.ProjectSettings {
	settings, _ := c.Get(projectSettingsKey)
	s, _ := settings.(engine.ProjectSettings)
	return s
}

func writeAppError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.SanitizedMessage(err)})
}
