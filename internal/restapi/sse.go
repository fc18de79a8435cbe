package restapi

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"rlmengine/internal/apperr"
)

// handleSSE frames exactly one tool call as three Server-Sent Events:
// start, result-or-error, done. It is not an open-ended streaming
// abstraction: the core engine answers in one shot, this just frames
// that single answer as SSE for clients that expect it.
func (r *Router) handleSSE(c *gin.Context) {
	tool := c.Query("tool")
	if tool == "" {
		writeAppError(c, apperr.New(apperr.KindValidation, "tool query parameter is required"))
		return
	}

	var params map[string]interface{}
	if raw := c.Query("params"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			writeAppError(c, apperr.New(apperr.KindValidation, "params must be a JSON object"))
			return
		}
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	writeEvent(c, "start", gin.H{"tool": tool})

	hc := handlerContextFrom(c)
	result, err := r.dispatcher.Dispatch(hc, tool, params, projectSettingsFrom(c))
	if err != nil {
		writeEvent(c, "error", gin.H{"error": apperr.SanitizedMessage(err)})
	} else {
		writeEvent(c, "result", gin.H{"text": result.Text, "data": result.Data})
	}

	writeEvent(c, "done", gin.H{})
}

func writeEvent(c *gin.Context, event string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		body = []byte(`{}`)
	}
	c.SSEvent(event, string(body))
	c.Writer.Flush()
}
