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

// TaskStore persists SwarmTasks and implements the dependency-aware
// claim/complete state machine.
type TaskStore struct {
	collection *mongo.Collection
}

// NewTaskStore creates a TaskStore.
func NewTaskStore(ctx context.Context, db *mongo.Database) (*TaskStore, error) {
	collection := db.Collection("swarm_tasks")
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "swarm_id", Value: 1}, {Key: "status", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("swarm: create tasks index: %w", err)
	}
	return &TaskStore{collection: collection}, nil
}

// Create enqueues a new PENDING task.
func (s *TaskStore) Create(ctx context.Context, swarmID, title string, priority int, deadline *time.Time, dependsOn []string) (*SwarmTask, error) {
	task := SwarmTask{
		ID:        uuid.New().String(),
		SwarmID:   swarmID,
		Title:     title,
		Priority:  priority,
		Status:    TaskPending,
		DependsOn: dependsOn,
		Deadline:  deadline,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.collection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("swarm: create task: %w", err)
	}
	return &task, nil
}

// reapExpired returns any IN_PROGRESS task past its claim timeout to
// PENDING, clearing its assignment. Called lazily before every claim
// scan so no background goroutine is required for correctness.
func (s *TaskStore) reapExpired(ctx context.Context, swarmID string) error {
	cutoff := time.Now().UTC().Add(-claimTimeout)
	_, err := s.collection.UpdateMany(ctx, bson.M{
		"swarm_id":   swarmID,
		"status":     TaskInProgress,
		"started_at": bson.M{"$lte": cutoff},
	}, bson.M{
		"$set":   bson.M{"status": TaskPending},
		"$unset": bson.M{"assigned_to": "", "started_at": "", "claimed_at": ""},
	})
	if err != nil {
		return fmt.Errorf("swarm: reap expired tasks: %w", err)
	}
	return nil
}

// Claim transitions a task to IN_PROGRESS for agentID. If taskID is
// non-empty, that specific PENDING task is claimed (CAS on status).
// Otherwise the highest-priority PENDING task whose every dependency is
// COMPLETED is selected.
func (s *TaskStore) Claim(ctx context.Context, swarmID, agentID, taskID string) (*SwarmTask, error) {
	if err := s.reapExpired(ctx, swarmID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	after := options.After

	if taskID != "" {
		filter := bson.M{"_id": taskID, "swarm_id": swarmID, "status": TaskPending}
		update := bson.M{"$set": bson.M{
			"status":      TaskInProgress,
			"assigned_to": agentID,
			"started_at":  now,
			"claimed_at":  now,
		}}
		var claimed SwarmTask
		err := s.collection.FindOneAndUpdate(ctx, filter, update,
			&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&claimed)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, fmt.Errorf("swarm: task %s is not PENDING or does not exist", taskID)
			}
			return nil, fmt.Errorf("swarm: claim task: %w", err)
		}
		return &claimed, nil
	}

	cursor, err := s.collection.Find(ctx, bson.M{"swarm_id": swarmID, "status": TaskPending},
		options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("swarm: scan pending tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var candidates []SwarmTask
	if err := cursor.All(ctx, &candidates); err != nil {
		return nil, fmt.Errorf("swarm: decode pending tasks: %w", err)
	}

	for _, candidate := range candidates {
		ready, err := s.dependenciesSatisfied(ctx, candidate.DependsOn)
		if err != nil {
			return nil, err
		}
		if !ready {
			continue
		}
		filter := bson.M{"_id": candidate.ID, "status": TaskPending}
		update := bson.M{"$set": bson.M{
			"status":      TaskInProgress,
			"assigned_to": agentID,
			"started_at":  now,
			"claimed_at":  now,
		}}
		var claimed SwarmTask
		err = s.collection.FindOneAndUpdate(ctx, filter, update,
			&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&claimed)
		if err == nil {
			return &claimed, nil
		}
		if err != mongo.ErrNoDocuments {
			return nil, fmt.Errorf("swarm: claim candidate task: %w", err)
		}
		// Lost the race to another agent; try the next candidate.
	}

	return nil, nil
}

func (s *TaskStore) dependenciesSatisfied(ctx context.Context, dependsOn []string) (bool, error) {
	if len(dependsOn) == 0 {
		return true, nil
	}
	count, err := s.collection.CountDocuments(ctx, bson.M{
		"_id":    bson.M{"$in": dependsOn},
		"status": bson.M{"$ne": TaskCompleted},
	})
	if err != nil {
		return false, fmt.Errorf("swarm: check dependencies: %w", err)
	}
	return count == 0, nil
}

// Complete marks a task COMPLETED or FAILED. Only the assignee may
// complete it. Returns every PENDING task whose dependencies are now
// fully COMPLETED as a result.
func (s *TaskStore) Complete(ctx context.Context, swarmID, agentID, taskID string, success bool) (unblocked []SwarmTask, err error) {
	status := TaskCompleted
	if !success {
		status = TaskFailed
	}

	result := s.collection.FindOneAndUpdate(ctx, bson.M{
		"_id":         taskID,
		"swarm_id":    swarmID,
		"status":      TaskInProgress,
		"assigned_to": agentID,
	}, bson.M{"$set": bson.M{"status": status}})
	if result.Err() != nil {
		if result.Err() == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("swarm: task %s is not IN_PROGRESS for agent %s", taskID, agentID)
		}
		return nil, fmt.Errorf("swarm: complete task: %w", result.Err())
	}

	if !success {
		return nil, nil
	}

	cursor, err := s.collection.Find(ctx, bson.M{"swarm_id": swarmID, "status": TaskPending, "depends_on": taskID})
	if err != nil {
		return nil, fmt.Errorf("swarm: scan dependents: %w", err)
	}
	defer cursor.Close(ctx)

	var candidates []SwarmTask
	if err := cursor.All(ctx, &candidates); err != nil {
		return nil, fmt.Errorf("swarm: decode dependents: %w", err)
	}

	for _, candidate := range candidates {
		ready, err := s.dependenciesSatisfied(ctx, candidate.DependsOn)
		if err != nil {
			return nil, err
		}
		if ready {
			unblocked = append(unblocked, candidate)
		}
	}
	return unblocked, nil
}
