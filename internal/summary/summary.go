// Package summary implements storage and retrieval of plan-gated section
// summaries, substituted for full content by the context assembler when
// PreferSummaries is set.
package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rlmengine/internal/apperr"
	"rlmengine/internal/domain"
	"rlmengine/internal/plan"
)

// Record is one stored summary of a document section.
type Record struct {
	ID        string    `bson:"_id" json:"id"`
	ProjectID string    `bson:"project_id" json:"project_id"`
	SectionID string    `bson:"section_id" json:"section_id"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Store persists summaries in MongoDB, gating writes and reads by plan.
type Store struct {
	collection *mongo.Collection
}

// NewStore creates a summary Store.
func NewStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	collection := db.Collection("summaries")
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "section_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("summary: create index: %w", err)
	}
	return &Store{collection: collection}, nil
}

// Store writes or replaces a project's summary for sectionID. Rejected
// with apperr.KindAccess if p does not allow summary storage.
func (s *Store) Store(ctx context.Context, p domain.Plan, projectID, sectionID, content string) (*Record, error) {
	if !plan.AllowsSummaryStorage(p) {
		return nil, apperr.New(apperr.KindAccess, "summary storage is not available on this plan")
	}

	now := time.Now().UTC()
	filter := bson.M{"project_id": projectID, "section_id": sectionID}
	update := bson.M{
		"$set": bson.M{"content": content, "created_at": now},
		"$setOnInsert": bson.M{
			"_id":        uuid.New().String(),
			"project_id": projectID,
			"section_id": sectionID,
		},
	}
	after := options.After
	var record Record
	err := s.collection.FindOneAndUpdate(ctx, filter, update,
		&options.FindOneAndUpdateOptions{ReturnDocument: &after, Upsert: boolPtr(true)}).Decode(&record)
	if err != nil {
		return nil, fmt.Errorf("summary: store: %w", err)
	}
	return &record, nil
}

// Get returns a project's summaries for the given section IDs. Unknown
// section IDs are silently omitted from the result.
func (s *Store) Get(ctx context.Context, p domain.Plan, projectID string, sectionIDs []string) ([]Record, error) {
	if !plan.AllowsSummaryStorage(p) {
		return nil, apperr.New(apperr.KindAccess, "summary storage is not available on this plan")
	}

	filter := bson.M{"project_id": projectID}
	if len(sectionIDs) > 0 {
		filter["section_id"] = bson.M{"$in": sectionIDs}
	}

	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("summary: get: %w", err)
	}
	defer cursor.Close(ctx)

	var records []Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("summary: decode get: %w", err)
	}
	return records, nil
}

// Delete removes a project's summary for sectionID.
func (s *Store) Delete(ctx context.Context, p domain.Plan, projectID, sectionID string) error {
	if !plan.AllowsSummaryStorage(p) {
		return apperr.New(apperr.KindAccess, "summary storage is not available on this plan")
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"project_id": projectID, "section_id": sectionID})
	if err != nil {
		return fmt.Errorf("summary: delete: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperr.New(apperr.KindNotFound, fmt.Sprintf("no summary found for section %s", sectionID))
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
