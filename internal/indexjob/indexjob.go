// Package indexjob runs a per-project reindexing job queue: chunking,
// embedding, and upserting a project's documents into the chunk store.
// The server enqueues jobs explicitly, from the REST reindex endpoint and
// the rlm_reindex tool. The package also provides a Watcher that enqueues
// jobs on fsnotify events under a watched directory; the server binary
// does not start one.
package indexjob

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"rlmengine/internal/apperr"
	"rlmengine/internal/chunkstore"
	"rlmengine/internal/embedclient"
	"rlmengine/internal/tokens"
)

// Status is one state in a job's PENDING -> RUNNING -> {COMPLETED, FAILED}
// lifecycle.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Mode selects how much of a project is rescanned.
type Mode string

const (
	ModeIncremental Mode = "incremental"
	ModeFull        Mode = "full"
)

const maxRetries = 3

// chunkTargetTokens and chunkOverlapTokens size the sliding window used
// to split a document into chunks for embedding.
const (
	chunkTargetTokens  = 1000
	chunkOverlapTokens = 200
)

// Job is one queued or in-flight reindex run for a project.
type Job struct {
	ID                 string     `bson:"_id" json:"id"`
	ProjectID          string     `bson:"project_id" json:"project_id"`
	Mode               Mode       `bson:"mode" json:"mode"`
	Status             Status     `bson:"status" json:"status"`
	WorkerID           string     `bson:"worker_id,omitempty" json:"worker_id,omitempty"`
	RetryCount         int        `bson:"retry_count" json:"retry_count"`
	MaxRetries         int        `bson:"max_retries" json:"max_retries"`
	DocumentsProcessed int        `bson:"documents_processed" json:"documents_processed"`
	ChunksCreated      int        `bson:"chunks_created" json:"chunks_created"`
	Error              string     `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt          time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `bson:"updated_at" json:"updated_at"`
	CompletedAt        *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// Store persists Jobs in MongoDB and implements the dedup rule: at most
// one PENDING job per project at a time.
type Store struct {
	collection *mongo.Collection
}

// NewStore creates a Store.
func NewStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	collection := db.Collection("index_jobs")
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "status", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("indexjob: create index: %w", err)
	}
	return &Store{collection: collection}, nil
}

// Enqueue creates a PENDING job for projectID, or returns the existing
// PENDING job unchanged if one is already queued.
func (s *Store) Enqueue(ctx context.Context, projectID string, mode Mode) (*Job, error) {
	var existing Job
	err := s.collection.FindOne(ctx, bson.M{"project_id": projectID, "status": StatusPending}).Decode(&existing)
	if err == nil {
		return &existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("indexjob: check pending: %w", err)
	}

	now := time.Now().UTC()
	job := Job{
		ID:         uuid.New().String(),
		ProjectID:  projectID,
		Mode:       mode,
		Status:     StatusPending,
		MaxRetries: maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.collection.InsertOne(ctx, job); err != nil {
		return nil, fmt.Errorf("indexjob: enqueue: %w", err)
	}
	return &job, nil
}

// Get returns a job by ID.
func (s *Store) Get(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	err := s.collection.FindOne(ctx, bson.M{"_id": jobID}).Decode(&job)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.KindNotFound, "job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("indexjob: get: %w", err)
	}
	return &job, nil
}

// ListPendingProjectIDs returns the distinct set of projects with at
// least one PENDING job, for a worker loop to sweep without needing its
// own project directory.
func (s *Store) ListPendingProjectIDs(ctx context.Context) ([]string, error) {
	raw, err := s.collection.Distinct(ctx, "project_id", bson.M{"status": StatusPending})
	if err != nil {
		return nil, fmt.Errorf("indexjob: list pending projects: %w", err)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// claim transitions the oldest PENDING job for projectID to RUNNING
// under workerID, or returns nil if none is queued.
func (s *Store) claim(ctx context.Context, projectID, workerID string) (*Job, error) {
	after := options.After
	var job Job
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"project_id": projectID, "status": StatusPending},
		bson.M{"$set": bson.M{"status": StatusRunning, "worker_id": workerID, "updated_at": time.Now().UTC()}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after, Sort: bson.D{{Key: "created_at", Value: 1}}},
	).Decode(&job)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("indexjob: claim: %w", err)
	}
	return &job, nil
}

func (s *Store) recordProgress(ctx context.Context, jobID string, documentsProcessed, chunksCreated int) error {
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": jobID}, bson.M{"$set": bson.M{
		"documents_processed": documentsProcessed,
		"chunks_created":       chunksCreated,
		"updated_at":           time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("indexjob: record progress: %w", err)
	}
	return nil
}

func (s *Store) markCompleted(ctx context.Context, jobID string) error {
	now := time.Now().UTC()
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": jobID}, bson.M{"$set": bson.M{
		"status": StatusCompleted, "updated_at": now, "completed_at": now,
	}})
	if err != nil {
		return fmt.Errorf("indexjob: mark completed: %w", err)
	}
	return nil
}

// markFailed retries the job (back to PENDING) if it has retries left,
// else leaves it FAILED.
func (s *Store) markFailed(ctx context.Context, job *Job, cause error) error {
	job.RetryCount++
	update := bson.M{
		"retry_count": job.RetryCount,
		"error":       cause.Error(),
		"updated_at":  time.Now().UTC(),
	}
	if job.RetryCount >= job.MaxRetries {
		update["status"] = StatusFailed
	} else {
		update["status"] = StatusPending
		update["worker_id"] = ""
	}
	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": job.ID}, bson.M{"$set": update}); err != nil {
		return fmt.Errorf("indexjob: mark failed: %w", err)
	}
	return nil
}

// Document is one source file to be chunked and embedded.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Worker claims and runs index jobs: chunk every document, embed each
// chunk, and upsert the result into the chunk store.
type Worker struct {
	jobs     *Store
	chunks   *chunkstore.Store
	embedder embedclient.Client
	id       string
	logger   *zap.Logger
}

// NewWorker builds a Worker identified by workerID. A nil logger is
// replaced with a no-op logger.
func NewWorker(jobs *Store, chunks *chunkstore.Store, embedder embedclient.Client, workerID string, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{jobs: jobs, chunks: chunks, embedder: embedder, id: workerID, logger: logger}
}

// DocumentSource supplies the documents a job should (re)index.
type DocumentSource interface {
	Documents(ctx context.Context, projectID string, mode Mode) ([]Document, error)
}

// RunOnce claims at most one PENDING job for projectID and processes it
// to completion (or failure). It returns nil, nil if no job was queued.
func (w *Worker) RunOnce(ctx context.Context, projectID string, source DocumentSource) (*Job, error) {
	job, err := w.jobs.claim(ctx, projectID, w.id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}

	docs, err := source.Documents(ctx, projectID, job.Mode)
	if err != nil {
		w.logger.Error("indexjob: failed to load documents", zap.String("job_id", job.ID), zap.Error(err))
		if markErr := w.jobs.markFailed(ctx, job, err); markErr != nil {
			return nil, markErr
		}
		return job, nil
	}

	documentsProcessed, chunksCreated := 0, 0
	for _, doc := range docs {
		pieces := chunkText(doc.Content, chunkTargetTokens, chunkOverlapTokens)
		if len(pieces) == 0 {
			documentsProcessed++
			continue
		}

		texts := make([]string, len(pieces))
		for i, p := range pieces {
			texts[i] = p.Text
		}
		vectors, err := w.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			w.logger.Error("indexjob: embed batch failed", zap.String("job_id", job.ID), zap.String("document_id", doc.ID), zap.Error(err))
			if markErr := w.jobs.markFailed(ctx, job, err); markErr != nil {
				return nil, markErr
			}
			return job, nil
		}

		chunkRows := make([]chunkstore.Chunk, len(pieces))
		for i, p := range pieces {
			chunkRows[i] = chunkstore.Chunk{
				ID:         fmt.Sprintf("%s#%d", doc.ID, i),
				ProjectID:  projectID,
				DocumentID: doc.ID,
				StartLine:  p.StartLine,
				EndLine:    p.EndLine,
				Content:    p.Text,
				Embedding:  vectors[i],
			}
		}
		if err := w.chunks.Upsert(ctx, chunkRows); err != nil {
			w.logger.Error("indexjob: upsert chunks failed", zap.String("job_id", job.ID), zap.Error(err))
			if markErr := w.jobs.markFailed(ctx, job, err); markErr != nil {
				return nil, markErr
			}
			return job, nil
		}

		documentsProcessed++
		chunksCreated += len(chunkRows)
		if err := w.jobs.recordProgress(ctx, job.ID, documentsProcessed, chunksCreated); err != nil {
			w.logger.Warn("indexjob: progress update failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	if err := w.jobs.markCompleted(ctx, job.ID); err != nil {
		return nil, err
	}
	job.Status = StatusCompleted
	job.DocumentsProcessed = documentsProcessed
	job.ChunksCreated = chunksCreated
	return job, nil
}

// Start begins a background polling loop that repeatedly sweeps every
// project carrying a PENDING job and runs it to completion, until ctx is
// canceled. Mirrors Watcher.Start's own-goroutine shape, polling a
// ticker instead of an fsnotify channel.
func (w *Worker) Start(ctx context.Context, source DocumentSource, pollInterval time.Duration) {
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.pollOnce(ctx, source)
			}
		}
	}()
}

func (w *Worker) pollOnce(ctx context.Context, source DocumentSource) {
	projectIDs, err := w.jobs.ListPendingProjectIDs(ctx)
	if err != nil {
		w.logger.Error("indexjob: failed to list pending projects", zap.Error(err))
		return
	}
	for _, projectID := range projectIDs {
		if _, err := w.RunOnce(ctx, projectID, source); err != nil {
			w.logger.Error("indexjob: job run failed", zap.String("project_id", projectID), zap.Error(err))
		}
	}
}

// piece is one chunk of a document's text plus the line range it spans.
type piece struct {
	Text      string
	StartLine int
	EndLine   int
}

// chunkText splits content into overlapping windows of roughly
// targetTokens tokens, sliding back by overlapTokens between windows so
// context at a boundary isn't lost to either neighbor. Splitting is
// line-based: a window never cuts a line in half.
func chunkText(content string, targetTokens, overlapTokens int) []piece {
	if content == "" {
		return nil
	}
	lines := splitLines(content)

	var pieces []piece
	start := 0
	for start < len(lines) {
		end := start
		count := 0
		for end < len(lines) && (count == 0 || count < targetTokens) {
			count += tokens.Count(lines[end])
			end++
		}
		pieces = append(pieces, piece{
			Text:      joinLines(lines[start:end]),
			StartLine: start + 1,
			EndLine:   end,
		})
		if end >= len(lines) {
			break
		}

		overlapStart := end
		overlapCount := 0
		for overlapStart > start && overlapCount < overlapTokens {
			overlapStart--
			overlapCount += tokens.Count(lines[overlapStart])
		}
		if overlapStart <= start {
			start = end
		} else {
			start = overlapStart
		}
	}
	return pieces
}

func splitLines(content string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i])
			start = i + 1
		}
	}
	lines = append(lines, content[start:])
	return lines
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
