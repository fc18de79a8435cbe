package tools

import (
	"rlmengine/internal/domain"
	"rlmengine/internal/engine"
	"rlmengine/internal/indexjob"
)

// ReindexHandler implements rlm_reindex: enqueue an index job for the
// calling project.
type ReindexHandler struct {
	Jobs *indexjob.Store
}

func (h *ReindexHandler) Name() string        { return "rlm_reindex" }
func (h *ReindexHandler) Description() string { return "Enqueue a reindex job for this project's uploaded documents." }
func (h *ReindexHandler) MinAccess() domain.AccessLevel { return domain.AccessEditor }

func (h *ReindexHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"mode": stringProp("incremental or full (default incremental)"),
	})
}

func (h *ReindexHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	mode := indexjob.Mode(optionalString(params, "mode", string(indexjob.ModeIncremental)))
	job, err := h.Jobs.Enqueue(hc.Context, hc.ProjectID, mode)
	if err != nil {
		return engine.ToolResult{}, err
	}
	return engine.ToolResult{Text: "enqueued: " + job.ID, Data: job}, nil
}

// ReindexProvider adapts indexjob.Store to restapi's ReindexEnqueuer
// interface, so the REST /reindex endpoints share the same job queue the
// rlm_reindex tool uses.
type ReindexProvider struct {
	Jobs *indexjob.Store
}

func (p *ReindexProvider) Enqueue(hc *engine.HandlerContext, mode string) (string, error) {
	job, err := p.Jobs.Enqueue(hc.Context, hc.ProjectID, indexjob.Mode(mode))
	if err != nil {
		return "", err
	}
	return job.ID, nil
}

func (p *ReindexProvider) Poll(hc *engine.HandlerContext, jobID string) (map[string]interface{}, error) {
	job, err := p.Jobs.Get(hc.Context, jobID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":                  job.ID,
		"status":              job.Status,
		"documents_processed": job.DocumentsProcessed,
		"chunks_created":      job.ChunksCreated,
		"retry_count":         job.RetryCount,
		"error":               job.Error,
	}, nil
}
