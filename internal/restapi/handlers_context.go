package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rlmengine/internal/apperr"
	"rlmengine/internal/engine"
)

type mcpCallBody struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

// handleMCPCall implements the lighter {tool, params} REST envelope over
// the same Engine Dispatcher the MCP transport uses.
func (r *Router) handleMCPCall(c *gin.Context) {
	var body mcpCallBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAppError(c, apperr.New(apperr.KindValidation, "request body must be {tool, params}"))
		return
	}

	hc := handlerContextFrom(c)
	result, err := r.dispatcher.Dispatch(hc, body.Tool, body.Params, projectSettingsFrom(c))
	if err != nil {
		writeAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": result.Text, "data": result.Data})
}

// LimitsProvider reports a project's plan limits and current usage, kept
// as an interface so the handler doesn't depend directly on internal/plan
// or internal/ratelimit's concrete storage wiring.
type LimitsProvider interface {
	Limits(hc *engine.HandlerContext) (map[string]interface{}, error)
}

// StatsProvider reports a project's counters (indexed sections and
// memories).
type StatsProvider interface {
	Stats(hc *engine.HandlerContext) (map[string]interface{}, error)
}

// ReindexEnqueuer starts or polls an index job for a project.
type ReindexEnqueuer interface {
	Enqueue(hc *engine.HandlerContext, mode string) (jobID string, err error)
	Poll(hc *engine.HandlerContext, jobID string) (map[string]interface{}, error)
}

// ContextProvider renders the same context payload rlm_context_query would,
// for a plain GET without going through the tool-call envelope.
type ContextProvider interface {
	Context(hc *engine.HandlerContext, query string) (map[string]interface{}, error)
}

func (r *Router) handleContext(c *gin.Context) {
	if r.context == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "context provider not configured"})
		return
	}
	hc := handlerContextFrom(c)
	result, err := r.context.Context(hc, c.Query("query"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) handleLimits(c *gin.Context) {
	if r.limits == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "limits provider not configured"})
		return
	}
	hc := handlerContextFrom(c)
	result, err := r.limits.Limits(hc)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) handleStats(c *gin.Context) {
	if r.stats == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "stats provider not configured"})
		return
	}
	hc := handlerContextFrom(c)
	result, err := r.stats.Stats(hc)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) handleReindexStart(c *gin.Context) {
	if r.reindex == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "reindex provider not configured"})
		return
	}
	mode := c.DefaultQuery("mode", "incremental")
	if mode != "incremental" && mode != "full" {
		writeAppError(c, apperr.New(apperr.KindValidation, "mode must be incremental or full"))
		return
	}
	hc := handlerContextFrom(c)
	jobID, err := r.reindex.Enqueue(hc, mode)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

func (r *Router) handleReindexPoll(c *gin.Context) {
	if r.reindex == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "reindex provider not configured"})
		return
	}
	hc := handlerContextFrom(c)
	result, err := r.reindex.Poll(hc, c.Param("job_id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
