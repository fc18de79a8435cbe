package tools

import (
	"sort"

	"rlmengine/internal/assemble"
	"rlmengine/internal/chunkstore"
	"rlmengine/internal/domain"
	"rlmengine/internal/embedclient"
	"rlmengine/internal/engine"
	"rlmengine/internal/index"
	"rlmengine/internal/plan"
	"rlmengine/internal/rank/classify"
	"rlmengine/internal/rank/fuse"
	"rlmengine/internal/rank/keyword"
	"rlmengine/internal/rank/semantic"
)

const (
	// precomputedSearchLimit bounds the pgvector nearest-neighbor query;
	// folding onto sections narrows this down further.
	precomputedSearchLimit = 50
	// maxOnTheFlyCandidates is the on-the-fly fallback's embedding budget:
	// never embed more than this many sections for one query.
	maxOnTheFlyCandidates = 30
	// onTheFlySnippetChars caps how much of a section's body is embedded
	// alongside its title when no precomputed vector exists.
	onTheFlySnippetChars = 120
	// onTheFlyMinSimilarity discards an on-the-fly match too weak to be a
	// meaningful semantic hit, mirroring chunkstore's precomputed floor.
	onTheFlyMinSimilarity = 0.3
)

// hybridRank runs keyword + semantic scoring over a project's indexed
// sections and fuses them via RRF, the shared core of rlm_search and
// rlm_context_query. The semantic pass prefers chunkstore's precomputed
// pgvector embeddings (folded onto sections by max-over-line-overlap) and
// only falls back to embedding sections on the fly when no precomputed
// chunk matches the project. The returned map carries, for each scored
// section ID, the backing chunkstore row ID if the match came from the
// precomputed path, used to give rlm_get_chunk a real row to resolve.
func hybridRank(hc *engine.HandlerContext, idx *index.DocumentIndex, embedder embedclient.Client, chunks *chunkstore.Store, query string) ([]fuse.Ranked, map[string]string, error) {
	keywords := keyword.ExtractKeywords(query)
	expanded := keyword.ExpandKeywords(keywords)
	isListQuery := keyword.IsListQuery(query)

	kwScores := make(map[string]float64, len(idx.Sections))
	keywordRanking := make([]fuse.Ranked, 0, len(idx.Sections))
	for _, sec := range idx.Sections {
		score := keyword.Score(keyword.Section{
			Title: sec.Title, Content: sec.Content, Body: sec.Body(), FilePath: sec.FilePath, Level: sec.Level,
		}, expanded, idx.UbiquitousKeywords, isListQuery)
		score = keyword.ApplyInternalPathPenalty(score, sec.FilePath)
		if score > 0 {
			kwScores[sec.ID] = score
			keywordRanking = append(keywordRanking, fuse.Ranked{ID: sec.ID, Score: score})
		}
	}

	var semanticRanking []fuse.Ranked
	chunkRefs := make(map[string]string)
	if embedder != nil && len(idx.Sections) > 0 {
		var err error
		semanticRanking, chunkRefs, err = precomputedSemanticRanking(hc, idx, embedder, chunks, query)
		if err != nil {
			return nil, nil, err
		}
		if len(semanticRanking) == 0 {
			semanticRanking, err = onTheFlySemanticRanking(hc, idx, embedder, kwScores, query)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	kw, sem := classify.Weights(query, kwScores)
	return fuse.HybridSearch(keywordRanking, semanticRanking, kw, sem), chunkRefs, nil
}

// precomputedSemanticRanking queries chunkstore's pgvector index and folds
// each match onto its owning section by max-over-line-overlap, keeping
// the backing chunk ID of whichever match produced a section's best
// score. Returns an empty ranking (not an error) when chunks is nil or no
// precomputed chunk exists yet for this project, so callers fall back.
func precomputedSemanticRanking(hc *engine.HandlerContext, idx *index.DocumentIndex, embedder embedclient.Client, chunks *chunkstore.Store, query string) ([]fuse.Ranked, map[string]string, error) {
	if chunks == nil {
		return nil, nil, nil
	}
	queryVector, err := embedder.Embed(hc.Context, query)
	if err != nil {
		return nil, nil, err
	}
	matches, err := chunks.Search(hc.Context, hc.ProjectID, queryVector, precomputedSearchLimit)
	if err != nil {
		return nil, nil, err
	}
	if len(matches) == 0 {
		return nil, nil, nil
	}

	bestScore := make(map[string]float64, len(idx.Sections))
	bestChunk := make(map[string]string, len(idx.Sections))
	for _, sec := range idx.Sections {
		for _, m := range matches {
			if m.DocumentID != sec.FilePath {
				continue
			}
			if m.EndLine < sec.StartLine || m.StartLine > sec.EndLine {
				continue // no line overlap
			}
			if prev, ok := bestScore[sec.ID]; !ok || m.Score > prev {
				bestScore[sec.ID] = m.Score
				bestChunk[sec.ID] = m.ChunkID
			}
		}
	}

	ranking := make([]fuse.Ranked, 0, len(bestScore))
	for id, score := range bestScore {
		ranking = append(ranking, fuse.Ranked{ID: id, Score: score})
	}
	return ranking, bestChunk, nil
}

// onTheFlySemanticRanking embeds a keyword-shortlisted subset of sections
// (title plus the first onTheFlySnippetChars of its content) when no precomputed
// chunk vector exists for this project, discarding matches below
// onTheFlyMinSimilarity.
func onTheFlySemanticRanking(hc *engine.HandlerContext, idx *index.DocumentIndex, embedder embedclient.Client, kwScores map[string]float64, query string) ([]fuse.Ranked, error) {
	candidates := onTheFlyCandidates(idx.Sections, kwScores, maxOnTheFlyCandidates)
	docs := make([]semantic.Document, len(candidates))
	for i, sec := range candidates {
		docs[i] = semantic.Document{ID: sec.ID, Text: onTheFlySnippet(sec)}
	}
	scored, err := semantic.RankOnTheFly(hc.Context, embedder, query, docs)
	if err != nil {
		return nil, err
	}
	ranking := make([]fuse.Ranked, 0, len(scored))
	for _, s := range scored {
		if s.Score < onTheFlyMinSimilarity {
			continue
		}
		ranking = append(ranking, fuse.Ranked{ID: s.ID, Score: s.Score})
	}
	return ranking, nil
}

// onTheFlyCandidates shortlists at most limit sections to embed: sections
// with a positive keyword score, highest first, when any scored; every
// section otherwise (a purely semantic query with no keyword hits still
// needs something to embed).
func onTheFlyCandidates(sections []index.Section, kwScores map[string]float64, limit int) []index.Section {
	candidates := sections
	if len(kwScores) > 0 {
		shortlisted := make([]index.Section, 0, len(kwScores))
		for _, sec := range sections {
			if _, ok := kwScores[sec.ID]; ok {
				shortlisted = append(shortlisted, sec)
			}
		}
		sort.Slice(shortlisted, func(i, j int) bool {
			return kwScores[shortlisted[i].ID] > kwScores[shortlisted[j].ID]
		})
		candidates = shortlisted
	}
	if limit > 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}
	return candidates
}

// onTheFlySnippet is the text embedded for a section lacking a
// precomputed vector: its title plus a short content prefix, not the
// full body, to keep the embedding call cheap.
func onTheFlySnippet(sec index.Section) string {
	body := sec.Content
	if len(body) > onTheFlySnippetChars {
		body = body[:onTheFlySnippetChars]
	}
	return sec.Title + "\n" + body
}

func sectionsByID(idx *index.DocumentIndex) map[string]index.Section {
	out := make(map[string]index.Section, len(idx.Sections))
	for _, sec := range idx.Sections {
		out[sec.ID] = sec
	}
	return out
}

// SearchHandler implements rlm_search: hybrid keyword/semantic search over
// a project's indexed documentation, returned as a graded relevance list
// without assembling a budget-limited context payload.
type SearchHandler struct {
	Embedder embedclient.Client
	Chunks   *chunkstore.Store
}

func (h *SearchHandler) Name() string        { return "rlm_search" }
func (h *SearchHandler) Description() string { return "Hybrid keyword/semantic search over this project's indexed documentation." }
func (h *SearchHandler) MinAccess() domain.AccessLevel { return domain.AccessViewer }

func (h *SearchHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"query": stringProp("the search query"),
		"limit": intProp("maximum results to return (default 10)"),
	}, "query")
}

func (h *SearchHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	query, err := requiredString(params, "query")
	if err != nil {
		return engine.ToolResult{}, err
	}
	limit := intParam(params, "limit", 10)

	idx, err := hc.Index()
	if err != nil {
		return engine.ToolResult{}, err
	}
	if idx == nil || len(idx.Sections) == 0 {
		return engine.ToolResult{Text: "no documents indexed for this project", Data: []interface{}{}}, nil
	}

	embedder := h.Embedder
	if !planAllowsSemantic(hc.Plan) {
		embedder = nil
	}

	ranked, _, err := hybridRank(hc, idx, embedder, h.Chunks, query)
	if err != nil {
		return engine.ToolResult{}, err
	}
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}

	byID := sectionsByID(idx)
	type hit struct {
		Title     string  `json:"title"`
		File      string  `json:"file"`
		StartLine int     `json:"start_line"`
		EndLine   int     `json:"end_line"`
		Score     float64 `json:"score"`
	}
	hits := make([]hit, 0, len(ranked))
	for _, r := range ranked {
		sec, ok := byID[r.ID]
		if !ok {
			continue
		}
		hits = append(hits, hit{Title: sec.Title, File: sec.FilePath, StartLine: sec.StartLine, EndLine: sec.EndLine, Score: r.Score})
	}

	return engine.ToolResult{Text: itoaLen(len(hits)) + " results", Data: hits}, nil
}

// ContextQueryHandler implements rlm_context_query: hybrid search followed
// by budget-aware context assembly, the primary tool agents call to pull
// project documentation into their working context.
type ContextQueryHandler struct {
	Embedder embedclient.Client
	Chunks   *chunkstore.Store
}

func (h *ContextQueryHandler) Name() string        { return "rlm_context_query" }
func (h *ContextQueryHandler) Description() string { return "Search this project's documentation and assemble a token-budgeted context payload." }
func (h *ContextQueryHandler) MinAccess() domain.AccessLevel { return domain.AccessViewer }

func (h *ContextQueryHandler) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"query":             stringProp("what to pull into context"),
		"max_tokens":        intProp("token budget for the assembled response (default 4000)"),
		"return_references": boolProp("return citation previews instead of full section content"),
	}, "query")
}

func (h *ContextQueryHandler) Invoke(hc *engine.HandlerContext, params map[string]interface{}) (engine.ToolResult, error) {
	query, err := requiredString(params, "query")
	if err != nil {
		return engine.ToolResult{}, err
	}
	maxTokens := intParam(params, "max_tokens", 4000)
	returnReferences := boolParam(params, "return_references", false)

	idx, err := hc.Index()
	if err != nil {
		return engine.ToolResult{}, err
	}
	if idx == nil || len(idx.Sections) == 0 {
		return engine.ToolResult{Text: "no documents indexed for this project"}, nil
	}

	embedder := h.Embedder
	if !planAllowsSemantic(hc.Plan) {
		embedder = nil
	}

	ranked, chunkRefs, err := hybridRank(hc, idx, embedder, h.Chunks, query)
	if err != nil {
		return engine.ToolResult{}, err
	}

	byID := sectionsByID(idx)
	sections := make([]assemble.Section, 0, len(ranked))
	for _, r := range ranked {
		sec, ok := byID[r.ID]
		if !ok {
			continue
		}
		sections = append(sections, assemble.Section{
			ID: sec.ID, ChunkID: chunkRefs[sec.ID], Title: sec.Title, Content: sec.Content, File: sec.FilePath,
			StartLine: sec.StartLine, EndLine: sec.EndLine, Score: r.Score,
		})
	}

	result := assemble.Assemble(assemble.Request{
		Query:            query,
		Ranked:           sections,
		MaxTokens:        maxTokens,
		ReturnReferences: returnReferences,
		SessionContext:   hc.SessionContext,
	})

	return engine.ToolResult{Text: result.RoutingRecommendation, Data: result}, nil
}

func planAllowsSemantic(p domain.Plan) bool {
	return plan.AllowsSemanticSearch(p)
}
