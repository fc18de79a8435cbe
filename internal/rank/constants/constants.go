// Package constants holds the static tables that drive keyword scoring,
// query classification, and query expansion. They are immutable
// process-lifetime data, ported term-for-term from the reference scorer.
package constants

// StopWords are excluded from keyword scoring to prevent false title
// matches; without this, "what are prices?" would rank a section titled
// "What Happens When Limits Are Exceeded" above actual pricing content.
var StopWords = buildSet(
	"a", "an", "the", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would", "could",
	"should", "may", "might", "shall", "can", "need",
	"to", "of", "in", "for", "on", "with", "at", "by", "from", "as", "into",
	"through", "during", "before", "after", "above", "below", "between",
	"out", "off", "over", "under", "again", "further",
	"then", "once", "here", "there", "when", "where", "why", "how", "all",
	"both", "each", "few", "more", "most", "other", "some", "such", "no",
	"nor", "not", "only", "own", "same", "so", "than", "too", "very",
	"just", "because", "but", "and", "or", "if",
	"what", "which", "who", "whom", "this", "that", "these", "those", "it",
	"its", "my", "your", "his", "her", "our", "their", "about", "up",
	"also", "any", "many", "much",
	"value", "proposition", "core", "main", "key", "primary", "work",
	"works", "working", "feature", "features", "thing", "things",
	"something", "everything",
	"use", "used", "using", "get", "gets", "getting", "make", "makes",
	"making", "see", "sees", "seeing", "know", "knows", "knowing", "think",
	"thinks", "want", "wants", "wanting", "like", "likes",
)

// HybridKeywordHeavy, HybridBalanced, HybridSemanticHeavy are the adaptive
// weight profiles (keyword_weight, semantic_weight) chosen by the query
// classifier.
var (
	HybridKeywordHeavy   = [2]float64{0.60, 0.40}
	HybridBalanced       = [2]float64{0.40, 0.60}
	HybridSemanticHeavy  = [2]float64{0.25, 0.75}
)

// RRFK is the Reciprocal Rank Fusion constant. Lower values weight top
// results more heavily, improving precision at the cost of recall.
const RRFK = 45

// GenericTitleTerms get reduced title weight (1.5x instead of 5x) because
// they appear in many unrelated sections and cause false matches.
var GenericTitleTerms = buildSet(
	"snipara", "rlm", "mcp",
	"tools", "tool", "guide", "reference", "overview", "docs",
	"how", "what", "when", "where", "why",
	"using", "use", "get", "set", "run", "make",
	"available", "not", "error", "issue", "troubleshoot",
)

// SpecificQueryTerms signal structured/factual content and trigger
// keyword-heavy weighting.
var SpecificQueryTerms = buildSet(
	"pricing", "price", "cost", "tier", "plan", "stack", "version", "model",
	"schema", "table", "endpoint", "api", "command", "config", "database",
	"deploy", "deployment", "auth", "authentication",
	"value", "proposition", "feature", "benefit", "overview", "architecture",
	"workflow", "integration", "limit", "rate",
	"hybrid", "semantic", "keyword", "search", "query", "token", "context",
	"chunk", "section", "document",
)

// ConceptualPrefixes trigger semantic-heavy weighting for how/why/explain
// style queries.
var ConceptualPrefixes = []string{
	"how does", "how do", "how is", "how are", "how can",
	"why does", "why do", "why is", "why are",
	"what is", "what are", "what does", "what do",
	"explain", "describe", "compare", "tell me about", "overview of",
	"what happens when", "what is the difference", "what are the tradeoffs",
	"value proposition", "core value", "main purpose", "key features",
}

// ListQueryPatterns mark queries that want enumerated results.
var ListQueryPatterns = []string{
	"what are the", "list the", "list all", "which", "what to write",
	"what to do", "next articles", "next tasks", "next steps", "upcoming",
	"planned", "todo", "to-do", "roadmap",
}

// NumberedSectionPatterns are regexes matching enumerated section titles
// (e.g. "### Article #1", "1. First item").
var NumberedSectionPatterns = []string{
	`(?i)^#+\s*(?:article|task|step|item|feature|issue|bug|story)\s*#?\d+`,
	`^#+\s*\d+[.):]`,
	`^\d+[.)]`,
	`#\d+\b`,
}

// PlannedContentMarkers indicate planned/unpublished/future content.
var PlannedContentMarkers = []string{
	"📝", "unpublished", "planned", "draft", "todo", "upcoming", "next:",
	"status:", "wip", "in progress", "pending",
}

// InternalPathPatterns deprioritize debug/internal files that can pollute
// results when they happen to match common query terms.
var InternalPathPatterns = []string{
	".claude/", ".cursorrules", "/internal/", "/debug/", "debug", "session",
}

// InternalPathPenalty multiplies the final score of a section whose file
// path matches InternalPathPatterns.
const InternalPathPenalty = 0.1

// QueryExpansions maps abstract query terms to concrete keywords that
// should match documentation sections, for better recall on abstract
// queries like "architecture".
var QueryExpansions = map[string][]string{
	"architecture": {
		"snipara-mcp", "FastAPI", "Railway", "Vercel", "Neon", "component",
		"three-component", "PostgreSQL", "Redis",
	},
	"three-component": {
		"snipara-mcp", "FastAPI", "Vercel", "Railway", "PostgreSQL",
	},
	"components": {
		"snipara-mcp", "FastAPI", "Vercel", "web app", "MCP server",
	},
	"tech stack": {
		"Next.js", "FastAPI", "Prisma", "PostgreSQL", "Railway", "Tailwind",
		"DaisyUI", "Stripe",
	},
	"stack": {
		"Next.js", "FastAPI", "Prisma", "PostgreSQL", "Railway",
	},
	"deployment": {
		"Railway", "Vercel", "Docker", "snipara-fastapi", "monorepo",
		"main branch", "dev branch", "auto-deploy",
	},
	"deploy": {
		"Railway", "Vercel", "Docker", "production", "staging",
	},
	"mcp tools": {
		"rlm_context_query", "rlm_ask", "rlm_search", "rlm_decompose",
		"rlm_multi_query", "rlm_plan", "rlm_remember", "rlm_recall",
	},
	"tools": {
		"rlm_context_query", "rlm_ask", "rlm_search", "rlm_decompose",
	},
	"value proposition": {
		"context optimization", "token reduction", "90%", "LLM-agnostic",
		"high margins", "no vendor lock-in",
	},
	"shared context": {
		"budget allocation", "MANDATORY", "BEST_PRACTICES", "GUIDELINES",
		"REFERENCE", "40%", "30%", "20%", "10%",
	},
	"budget allocation": {
		"MANDATORY", "BEST_PRACTICES", "GUIDELINES", "REFERENCE", "40%",
		"30%", "20%", "10%", "shared context",
	},
	"pricing": {
		"FREE", "PRO", "TEAM", "ENTERPRISE", "$19", "$49", "$499",
		"queries/mo", "100", "5000", "20000",
	},
	"limits": {
		"rate limit", "monthly", "429", "exceeded", "reset_at",
	},
	"memory": {
		"rlm_remember", "rlm_recall", "rlm_memories", "rlm_forget",
		"ttl_days", "agent", "session", "decision", "learning",
	},
	"agent": {
		"memory", "swarm", "rlm_remember", "rlm_recall", "coordination",
	},
}

// AbstractQueryMinSections is the minimum number of sections the assembler
// must try to deliver for abstract/conceptual queries.
const AbstractQueryMinSections = 5

func buildSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
