package tools

import (
	"rlmengine/internal/apperr"
	"rlmengine/internal/chunkstore"
	"rlmengine/internal/domain"
	"rlmengine/internal/engine"
)

// GetChunkHandler implements rlm_get_chunk: resolves a chunk_id returned
// in a rlm_context_query reference preview back into full content. A
// chunk_id backed by a precomputed chunkstore row resolves there
// directly; a chunk_id that is really just a section ID (the fallback
// rlm_context_query uses when no precomputed chunk covers a section)
// resolves by scanning the project's index instead.
type GetChunkHandler struct {
	Chunks *chunkstore.Store
}

func (h *GetChunkHandler) Name() string        { return "rlm_get_chunk" }
func (h *GetChunkHandler) Description() string { return "Fetch the full content a reference preview's chunk_id points to." }
func (h *GetChunkHandler) MinAccess() domain.AccessLevel { return domain.AccessViewer }

func (h *GetChunkHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"chunk_id": stringProp("the chunk_id from a reference preview"),
	}, "chunk_id")
}

type chunkContent struct {
	ChunkID   string `json:"chunk_id"`
	Content   string `json:"content"`
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

func (h *GetChunkHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	chunkID, err := requiredString(params, "chunk_id")
	if err != nil {
		return engine.ToolResult{}, err
	}

	if h.Chunks != nil {
		if c, err := h.Chunks.Get(hc.Context, chunkID); err == nil {
			if c.ProjectID != hc.ProjectID {
				return engine.ToolResult{}, apperr.New(apperr.KindNotFound, "chunk not found")
			}
			result := chunkContent{ChunkID: c.ID, Content: c.Content, File: c.DocumentID, StartLine: c.StartLine, EndLine: c.EndLine}
			return engine.ToolResult{Text: result.Content, Data: result}, nil
		}
	}

	idx, err := hc.Index()
	if err != nil {
		return engine.ToolResult{}, err
	}
	if idx != nil {
		for _, sec := range idx.Sections {
			if sec.ID == chunkID {
				result := chunkContent{ChunkID: sec.ID, Content: sec.Content, File: sec.FilePath, StartLine: sec.StartLine, EndLine: sec.EndLine}
				return engine.ToolResult{Text: result.Content, Data: result}, nil
			}
		}
	}

	return engine.ToolResult{}, apperr.New(apperr.KindNotFound, "chunk not found")
}
