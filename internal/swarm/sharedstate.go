package swarm

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrVersionConflict is returned by Set when an expectedVersion is given
// and does not match the stored version.
type ErrVersionConflict struct {
	CurrentVersion  int64
	ExpectedVersion int64
}

func (e *ErrVersionConflict) Error() string {
	return fmt.Sprintf("swarm: version conflict: expected %d, current %d", e.ExpectedVersion, e.CurrentVersion)
}

// StateStore persists SharedStateEntry documents in MongoDB.
type StateStore struct {
	collection *mongo.Collection
}

// NewStateStore creates a StateStore and ensures the (swarm_id, key)
// uniqueness index exists.
func NewStateStore(ctx context.Context, db *mongo.Database) (*StateStore, error) {
	collection := db.Collection("swarm_state")
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "swarm_id", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("swarm: create state index: %w", err)
	}
	return &StateStore{collection: collection}, nil
}

// wrapValue boxes scalars and strings so every stored value is a JSON
// object/array, and records how to unwrap it on read.
func wrapValue(value interface{}) (wrapped interface{}, kind string) {
	switch value.(type) {
	case map[string]interface{}, []interface{}, nil:
		return value, ""
	case string:
		return bson.M{"raw": value}, "raw"
	default:
		return bson.M{"value": value}, "scalar"
	}
}

func unwrapEntry(e *SharedStateEntry) interface{} {
	switch e.Wrapped {
	case "raw":
		if m, ok := e.Value.(bson.M); ok {
			return m["raw"]
		}
		if m, ok := e.Value.(map[string]interface{}); ok {
			return m["raw"]
		}
	case "scalar":
		if m, ok := e.Value.(bson.M); ok {
			return m["value"]
		}
		if m, ok := e.Value.(map[string]interface{}); ok {
			return m["value"]
		}
	}
	return e.Value
}

// Get reads one key's current value, version, and last writer. Returns
// mongo.ErrNoDocuments if the key does not exist.
func (s *StateStore) Get(ctx context.Context, swarmID, key string) (*SharedStateEntry, error) {
	var entry SharedStateEntry
	err := s.collection.FindOne(ctx, bson.M{"swarm_id": swarmID, "key": key}).Decode(&entry)
	if err != nil {
		return nil, err
	}
	entry.Value = unwrapEntry(&entry)
	return &entry, nil
}

// Set writes key's value, optionally gated by expectedVersion (CAS). A
// nil expectedVersion always succeeds (upsert-or-increment); a non-nil
// one must match the stored version or *ErrVersionConflict is returned.
func (s *StateStore) Set(ctx context.Context, swarmID, agentID, key string, value interface{}, expectedVersion *int64, ttl *time.Duration) (*SharedStateEntry, error) {
	boxed, kind := wrapValue(value)
	now := time.Now().UTC()

	setFields := bson.M{
		"swarm_id":   swarmID,
		"key":        key,
		"value":      boxed,
		"wrapped":    kind,
		"updated_at": now,
		"updated_by": agentID,
	}
	if ttl != nil {
		expires := now.Add(*ttl)
		setFields["expires_at"] = expires
	}

	after := options.After

	if expectedVersion != nil {
		filter := bson.M{"swarm_id": swarmID, "key": key, "version": *expectedVersion}
		update := bson.M{"$set": setFields, "$inc": bson.M{"version": int64(1)}}

		var updated SharedStateEntry
		err := s.collection.FindOneAndUpdate(ctx, filter, update,
			&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&updated)
		if err == nil {
			updated.Value = unwrapEntry(&updated)
			return &updated, nil
		}
		if err != mongo.ErrNoDocuments {
			return nil, fmt.Errorf("swarm: cas set: %w", err)
		}

		var current SharedStateEntry
		currentVersion := int64(0)
		if lookupErr := s.collection.FindOne(ctx, bson.M{"swarm_id": swarmID, "key": key}).Decode(&current); lookupErr == nil {
			currentVersion = current.Version
		}
		return nil, &ErrVersionConflict{CurrentVersion: currentVersion, ExpectedVersion: *expectedVersion}
	}

	filter := bson.M{"swarm_id": swarmID, "key": key}
	update := bson.M{"$set": setFields, "$inc": bson.M{"version": int64(1)}}
	var updated SharedStateEntry
	err := s.collection.FindOneAndUpdate(ctx, filter, update,
		&options.FindOneAndUpdateOptions{ReturnDocument: &after, Upsert: boolPtr(true)}).Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("swarm: set: %w", err)
	}
	updated.Value = unwrapEntry(&updated)
	return &updated, nil
}

// PollResult is the outcome of a Poll call.
type PollResult struct {
	Changed      []SharedStateEntry
	MissingKeys  []string
}

// Poll reads many keys in one round trip, returning only those whose
// stored version exceeds the caller's last known version, plus the list
// of requested keys that do not exist at all.
func (s *StateStore) Poll(ctx context.Context, swarmID string, keys []string, lastVersions map[string]int64) (*PollResult, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"swarm_id": swarmID, "key": bson.M{"$in": keys}})
	if err != nil {
		return nil, fmt.Errorf("swarm: poll: %w", err)
	}
	defer cursor.Close(ctx)

	found := make(map[string]struct{}, len(keys))
	result := &PollResult{}
	for cursor.Next(ctx) {
		var entry SharedStateEntry
		if err := cursor.Decode(&entry); err != nil {
			return nil, fmt.Errorf("swarm: poll decode: %w", err)
		}
		found[entry.Key] = struct{}{}
		if entry.Version > lastVersions[entry.Key] {
			entry.Value = unwrapEntry(&entry)
			result.Changed = append(result.Changed, entry)
		}
	}
	for _, k := range keys {
		if _, ok := found[k]; !ok {
			result.MissingKeys = append(result.MissingKeys, k)
		}
	}
	return result, nil
}

func boolPtr(b bool) *bool { return &b }
