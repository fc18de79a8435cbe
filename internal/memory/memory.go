// Package memory implements the remember/recall/list/forget CRUD surface
// over project-scoped memory records, with TTL-based expiry filtering and
// optional semantic recall via an embedding client.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rlmengine/internal/embedclient"
	"rlmengine/internal/rank/semantic"
)

// Scope is who a memory record belongs to.
type Scope string

const (
	ScopeAgent   Scope = "AGENT"
	ScopeProject Scope = "PROJECT"
	ScopeTeam    Scope = "TEAM"
	ScopeUser    Scope = "USER"
)

// Type classifies the kind of memory content.
type Type string

const (
	TypeFact       Type = "FACT"
	TypeDecision   Type = "DECISION"
	TypeLearning   Type = "LEARNING"
	TypePreference Type = "PREFERENCE"
	TypeTodo       Type = "TODO"
	TypeContext    Type = "CONTEXT"
)

// Record is one stored memory.
type Record struct {
	ID        string     `bson:"_id" json:"id"`
	ProjectID string     `bson:"project_id" json:"project_id"`
	Scope     Scope      `bson:"scope" json:"scope"`
	Type      Type       `bson:"type" json:"type"`
	Content   string     `bson:"content" json:"content"`
	Category  string     `bson:"category,omitempty" json:"category,omitempty"`
	Embedding []float32  `bson:"embedding,omitempty" json:"-"`
	TTLDays   *int       `bson:"ttl_days,omitempty" json:"ttl_days,omitempty"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
}

// Store persists memory records in MongoDB.
type Store struct {
	collection *mongo.Collection
	embedder   embedclient.Client
}

// NewStore creates a memory Store. embedder may be nil; semantic Recall
// degrades to an error if called without one.
func NewStore(ctx context.Context, db *mongo.Database, embedder embedclient.Client) (*Store, error) {
	collection := db.Collection("memories")
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "scope", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("memory: create index: %w", err)
	}
	return &Store{collection: collection, embedder: embedder}, nil
}

// Remember stores a new memory record, computing its expiry from ttlDays
// if given and embedding its content when an embedder is configured.
func (s *Store) Remember(ctx context.Context, projectID string, scope Scope, typ Type, content, category string, ttlDays *int) (*Record, error) {
	record := Record{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Scope:     scope,
		Type:      typ,
		Content:   content,
		Category:  category,
		TTLDays:   ttlDays,
		CreatedAt: time.Now().UTC(),
	}
	if ttlDays != nil {
		expires := record.CreatedAt.AddDate(0, 0, *ttlDays)
		record.ExpiresAt = &expires
	}
	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, content)
		if err == nil {
			record.Embedding = vec
		}
	}

	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return nil, fmt.Errorf("memory: insert: %w", err)
	}
	return &record, nil
}

// List returns a project's non-expired memories, optionally filtered by
// scope and type. includeExpired bypasses the expiry filter.
func (s *Store) List(ctx context.Context, projectID string, scope Scope, typ Type, includeExpired bool) ([]Record, error) {
	filter := bson.M{"project_id": projectID}
	if scope != "" {
		filter["scope"] = scope
	}
	if typ != "" {
		filter["type"] = typ
	}
	if !includeExpired {
		now := time.Now().UTC()
		filter["$or"] = bson.A{
			bson.M{"expires_at": bson.M{"$exists": false}},
			bson.M{"expires_at": bson.M{"$gt": now}},
		}
	}

	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("memory: list: %w", err)
	}
	defer cursor.Close(ctx)

	var records []Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("memory: decode list: %w", err)
	}
	return records, nil
}

// Recall ranks a project's non-expired memories by semantic similarity
// to query, returning the top n.
func (s *Store) Recall(ctx context.Context, projectID, query string, n int) ([]Record, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("memory: recall requires an embedding client")
	}
	records, err := s.List(ctx, projectID, "", "", false)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("memory: embed query: %w", err)
	}

	byID := make(map[string]Record, len(records))
	embedded := make([]semantic.Embedded, 0, len(records))
	for _, r := range records {
		if len(r.Embedding) == 0 {
			continue
		}
		byID[r.ID] = r
		embedded = append(embedded, semantic.Embedded{ID: r.ID, Vector: r.Embedding})
	}

	ranked := semantic.RankPrecomputed(queryVec, embedded)
	if n <= 0 || n > len(ranked) {
		n = len(ranked)
	}

	out := make([]Record, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, byID[r.ID])
	}
	return out, nil
}

// Forget deletes a memory record by ID, scoped to projectID so one
// project cannot delete another's memory.
func (s *Store) Forget(ctx context.Context, projectID, memoryID string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": memoryID, "project_id": projectID})
	if err != nil {
		return fmt.Errorf("memory: forget: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("memory: no memory %s found in project %s", memoryID, projectID)
	}
	return nil
}
