// Package chunkstore persists embedded document chunks in Postgres with
// the pgvector extension and serves the nearest-neighbor lookups that
// back the precomputed semantic-scoring path. Chunks are the unit the
// index job worker produces; sections fold chunk scores onto themselves
// by max-over-line-overlap.
package chunkstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// minSimilarity is the floor below which a nearest-neighbor match is
// discarded rather than folded onto its section, per the precomputed
// semantic-scorer mode.
const minSimilarity = 0.3

// Chunk is one embedded slice of a document: a line range within a
// single file, with the vector computed over its text at index time.
type Chunk struct {
	ID         string
	ProjectID  string
	DocumentID string
	StartLine  int
	EndLine    int
	Content    string
	Embedding  []float32
}

// Store wraps a pgxpool.Pool scoped to the chunks table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore builds a Store. EnsureSchema must be called once (typically
// at process startup) before Upsert/Search are used.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the pgvector extension, the chunks table, and its
// similarity index if they do not already exist. dimensions is the
// embedding width of the configured EmbeddingClient; it is fixed at
// table-creation time because pgvector columns are fixed-width.
func (s *Store) EnsureSchema(ctx context.Context, dimensions int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			document_id TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS chunks_project_idx ON chunks (project_id)`,
		`CREATE INDEX IF NOT EXISTS chunks_document_idx ON chunks (document_id)`,
		`CREATE INDEX IF NOT EXISTS chunks_embedding_idx ON chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("chunkstore: ensure schema: %w", err)
		}
	}
	return nil
}

// Upsert inserts or replaces a batch of chunks, each keyed by ID.
func (s *Store) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("chunkstore: begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range chunks {
		_, err := tx.Exec(ctx, `
			INSERT INTO chunks (id, project_id, document_id, start_line, end_line, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7::vector)
			ON CONFLICT (id) DO UPDATE SET
				start_line = EXCLUDED.start_line,
				end_line = EXCLUDED.end_line,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding
		`, c.ID, c.ProjectID, c.DocumentID, c.StartLine, c.EndLine, c.Content, vectorLiteral(c.Embedding))
		if err != nil {
			return fmt.Errorf("chunkstore: upsert chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit(ctx)
}

// DeleteByDocument removes every chunk belonging to documentID, called
// when a document is re-indexed or removed from a project.
func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("chunkstore: delete by document: %w", err)
	}
	return nil
}

// Match is a nearest-neighbor hit carrying everything needed to fold its
// score onto the owning section by line overlap, without a second
// round-trip per match.
type Match struct {
	ChunkID    string
	DocumentID string
	StartLine  int
	EndLine    int
	Score      float64
}

// Search runs a pgvector cosine nearest-neighbor query scoped to
// projectID and returns up to limit matches at or above minSimilarity,
// most-similar first. This is the precomputed semantic-scoring path's
// hot query; callers fold each Match onto its owning section by
// max-over-line-overlap against DocumentID/StartLine/EndLine.
func (s *Store) Search(ctx context.Context, projectID string, queryVector []float32, limit int) ([]Match, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, document_id, start_line, end_line, 1 - (embedding <=> $1::vector) AS similarity
		FROM chunks
		WHERE project_id = $2
		ORDER BY embedding <=> $1::vector
		LIMIT $3
	`, vectorLiteral(queryVector), projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: search: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ChunkID, &m.DocumentID, &m.StartLine, &m.EndLine, &m.Score); err != nil {
			return nil, fmt.Errorf("chunkstore: scan search row: %w", err)
		}
		if m.Score < minSimilarity {
			continue
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chunkstore: iterate search rows: %w", err)
	}
	return out, nil
}

// Get fetches a chunk's full row by ID, backing rlm_get_chunk's resolution
// of a reference preview's chunk_id into full content.
func (s *Store) Get(ctx context.Context, chunkID string) (*Chunk, error) {
	var c Chunk
	err := s.pool.QueryRow(ctx, `
		SELECT id, project_id, document_id, start_line, end_line, content
		FROM chunks WHERE id = $1
	`, chunkID).Scan(&c.ID, &c.ProjectID, &c.DocumentID, &c.StartLine, &c.EndLine, &c.Content)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: get %s: %w", chunkID, err)
	}
	return &c, nil
}

// vectorLiteral renders a float32 slice as the pgvector text input
// format pgx sends as a plain string parameter cast with ::vector.
func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
