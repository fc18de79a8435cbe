package tools

import (
	"rlmengine/internal/apperr"
	"rlmengine/internal/domain"
	"rlmengine/internal/engine"
	"rlmengine/internal/plan"
	"rlmengine/internal/summary"
)

// SummarizeHandler implements rlm_summarize: persist a stored summary for
// a section, gated to plans whose tier allows summary storage.
type SummarizeHandler struct {
	Store *summary.Store
}

func (h *SummarizeHandler) Name() string        { return "rlm_summarize" }
func (h *SummarizeHandler) Description() string { return "Store a condensed summary of a section, substituted for full content under PreferSummaries." }
func (h *SummarizeHandler) MinAccess() domain.AccessLevel { return domain.AccessEditor }

func (h *SummarizeHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"section_id": stringProp("the section this summary condenses"),
		"content":    stringProp("the summary text"),
	}, "section_id", "content")
}

func (h *SummarizeHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	if !plan.AllowsSummaryStorage(hc.Plan) {
		return engine.ToolResult{}, apperr.New(apperr.KindAccess, "summary storage is not available on this plan")
	}
	sectionID, err := requiredString(params, "section_id")
	if err != nil {
		return engine.ToolResult{}, err
	}
	content, err := requiredString(params, "content")
	if err != nil {
		return engine.ToolResult{}, err
	}

	record, err := h.Store.Store(hc.Context, hc.Plan, hc.ProjectID, sectionID, content)
	if err != nil {
		return engine.ToolResult{}, err
	}
	return engine.ToolResult{Text: "summarized: " + sectionID, Data: record}, nil
}

// GetSummaryHandler implements rlm_get_summary: fetch stored summaries for
// one or more sections.
type GetSummaryHandler struct {
	Store *summary.Store
}

func (h *GetSummaryHandler) Name() string        { return "rlm_get_summary" }
func (h *GetSummaryHandler) Description() string { return "Fetch stored summaries for one or more section IDs." }
func (h *GetSummaryHandler) MinAccess() domain.AccessLevel { return domain.AccessViewer }

func (h *GetSummaryHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"section_ids": arrayProp("string", "section IDs to fetch summaries for"),
	}, "section_ids")
}

func (h *GetSummaryHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	sectionIDs := stringSliceParam(params, "section_ids")
	if len(sectionIDs) == 0 {
		return engine.ToolResult{}, apperr.New(apperr.KindValidation, "missing required parameter: section_ids")
	}

	records, err := h.Store.Get(hc.Context, hc.Plan, hc.ProjectID, sectionIDs)
	if err != nil {
		return engine.ToolResult{}, err
	}
	return engine.ToolResult{Text: itoaLen(len(records)) + " summaries", Data: records}, nil
}
