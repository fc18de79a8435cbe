package swarm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClaimStore persists ResourceClaims in MongoDB. Acquisition and release
// are each a single conditional operation: a FindOneAndUpdate to extend
// an existing claim, or an insert guarded by a partial unique index on
// (swarm_id, resource_type, resource_id) where status = "ACTIVE".
type ClaimStore struct {
	collection *mongo.Collection
}

// NewClaimStore creates a ClaimStore and ensures its partial unique index
// exists: at most one ACTIVE claim per (swarm_id, resource_type,
// resource_id).
func NewClaimStore(ctx context.Context, db *mongo.Database) (*ClaimStore, error) {
	collection := db.Collection("swarm_claims")
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "swarm_id", Value: 1},
			{Key: "resource_type", Value: 1},
			{Key: "resource_id", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": ClaimActive}),
	})
	if err != nil {
		return nil, fmt.Errorf("swarm: create claims index: %w", err)
	}
	return &ClaimStore{collection: collection}, nil
}

// AcquireResult is the outcome of an Acquire call.
type AcquireResult struct {
	Claim    *ResourceClaim
	Acquired bool
	Extended bool
	HeldBy   string
}

// Acquire attempts to grant agentID exclusive access to (resourceType,
// resourceID) within swarmID for ttl. It has three outcomes: the caller's
// own unexpired claim is extended (Acquired and Extended both true); a new
// claim is inserted (Acquired true); or another agent holds the resource
// (Acquired false, HeldBy names the holder).
func (s *ClaimStore) Acquire(ctx context.Context, swarmID, agentID, resourceType, resourceID string, ttl time.Duration) (*AcquireResult, error) {
	now := time.Now().UTC()

	extendFilter := bson.M{
		"swarm_id":      swarmID,
		"resource_type": resourceType,
		"resource_id":   resourceID,
		"status":        ClaimActive,
		"holder_agent":  agentID,
		"expires_at":    bson.M{"$gt": now},
	}
	extendUpdate := bson.M{"$set": bson.M{"expires_at": now.Add(ttl)}}
	after := options.After

	var extended ResourceClaim
	err := s.collection.FindOneAndUpdate(ctx, extendFilter, extendUpdate,
		&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&extended)
	if err == nil {
		return &AcquireResult{Claim: &extended, Acquired: true, Extended: true}, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("swarm: extend claim: %w", err)
	}

	// Lazily reap any expired ACTIVE claim on this resource so the insert
	// below does not collide with a stale partial-index entry.
	_, _ = s.collection.UpdateMany(ctx, bson.M{
		"swarm_id":      swarmID,
		"resource_type": resourceType,
		"resource_id":   resourceID,
		"status":        ClaimActive,
		"expires_at":    bson.M{"$lte": now},
	}, bson.M{"$set": bson.M{"status": ClaimExpired}})

	claim := ResourceClaim{
		ID:           uuid.New().String(),
		SwarmID:      swarmID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		HolderAgent:  agentID,
		Status:       ClaimActive,
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
	}
	_, err = s.collection.InsertOne(ctx, claim)
	if err == nil {
		return &AcquireResult{Claim: &claim, Acquired: true}, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("swarm: insert claim: %w", err)
	}

	var existing ResourceClaim
	lookupErr := s.collection.FindOne(ctx, bson.M{
		"swarm_id":      swarmID,
		"resource_type": resourceType,
		"resource_id":   resourceID,
		"status":        ClaimActive,
	}).Decode(&existing)
	if lookupErr != nil {
		return nil, fmt.Errorf("swarm: lookup held claim: %w", lookupErr)
	}
	return &AcquireResult{Acquired: false, HeldBy: existing.HolderAgent}, nil
}

// Release drops the active claim identified by claimID, or by
// (resourceType, resourceID) when claimID is empty. Only the current
// holder may release.
func (s *ClaimStore) Release(ctx context.Context, agentID, claimID, resourceType, resourceID string) error {
	filter := bson.M{"status": ClaimActive, "holder_agent": agentID}
	if claimID != "" {
		filter["_id"] = claimID
	} else {
		filter["resource_type"] = resourceType
		filter["resource_id"] = resourceID
	}

	result, err := s.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"status": ClaimReleased}})
	if err != nil {
		return fmt.Errorf("swarm: release claim: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("swarm: no active claim held by %s matching release request", agentID)
	}
	return nil
}
