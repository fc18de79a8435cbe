package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// InvocationLog is one recorded tool call, successful or not, used for
// usage accounting and audit.
type InvocationLog struct {
	ID        string    `bson:"_id" json:"id"`
	ProjectID string    `bson:"project_id" json:"project_id"`
	UserID    string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Tool      string    `bson:"tool" json:"tool"`
	Success   bool      `bson:"success" json:"success"`
	Error     string    `bson:"error,omitempty" json:"error,omitempty"`
	DurationMS int64    `bson:"duration_ms" json:"duration_ms"`
	At        time.Time `bson:"at" json:"at"`
}

// UsageLogger records every dispatch invocation to Mongo. Nil-safe: a
// Dispatcher with no logger configured simply skips accounting.
type UsageLogger struct {
	collection *mongo.Collection
}

// NewUsageLogger creates a UsageLogger over the given database's
// invocation_log collection.
func NewUsageLogger(db *mongo.Database) *UsageLogger {
	return &UsageLogger{collection: db.Collection("invocation_log")}
}

// Record writes one invocation outcome. Logging failures are swallowed:
// usage accounting must never fail the tool call it is recording.
func (u *UsageLogger) Record(ctx context.Context, projectID, userID, tool string, success bool, toolErr error, duration time.Duration) {
	if u == nil || u.collection == nil {
		return
	}
	entry := InvocationLog{
		ID:         uuid.New().String(),
		ProjectID:  projectID,
		UserID:     userID,
		Tool:       tool,
		Success:    success,
		DurationMS: duration.Milliseconds(),
		At:         time.Now().UTC(),
	}
	if toolErr != nil {
		entry.Error = toolErr.Error()
	}
	_, _ = u.collection.InsertOne(ctx, entry)
}
