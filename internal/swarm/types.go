// Package swarm implements multi-agent coordination primitives scoped to
// a project: resource claims, shared key/value state with optimistic
// concurrency, and a dependency-aware task queue. Storage is MongoDB;
// state CAS and task claim are each a single conditional
// FindOneAndUpdate, and claim acquire either extends the caller's claim
// the same way or inserts a new one guarded by a partial unique index.
package swarm

import "time"

// Swarm is a named coordination scope within a project.
type Swarm struct {
	ID        string    `bson:"_id" json:"id"`
	ProjectID string    `bson:"project_id" json:"project_id"`
	Name      string    `bson:"name" json:"name"`
	MaxAgents int       `bson:"max_agents" json:"max_agents"`
	IsActive  bool      `bson:"is_active" json:"is_active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// SwarmAgent is one participant registered in a Swarm. (swarm_id,
// agent_id) is unique while active.
type SwarmAgent struct {
	ID            string    `bson:"_id" json:"id"`
	SwarmID       string    `bson:"swarm_id" json:"swarm_id"`
	AgentID       string    `bson:"agent_id" json:"agent_id"`
	LastHeartbeat time.Time `bson:"last_heartbeat" json:"last_heartbeat"`
	Active        bool      `bson:"active" json:"active"`
}

// ClaimStatus is the lifecycle of a ResourceClaim.
type ClaimStatus string

const (
	ClaimActive  ClaimStatus = "ACTIVE"
	ClaimExpired ClaimStatus = "EXPIRED"
	ClaimReleased ClaimStatus = "RELEASED"
)

// ResourceClaim grants an agent exclusive access to one (resource_type,
// resource_id) within a swarm. At most one ACTIVE claim exists per
// resource at a time.
type ResourceClaim struct {
	ID           string      `bson:"_id" json:"id"`
	SwarmID      string      `bson:"swarm_id" json:"swarm_id"`
	ResourceType string      `bson:"resource_type" json:"resource_type"`
	ResourceID   string      `bson:"resource_id" json:"resource_id"`
	HolderAgent  string      `bson:"holder_agent" json:"holder_agent"`
	Status       ClaimStatus `bson:"status" json:"status"`
	ExpiresAt    time.Time   `bson:"expires_at" json:"expires_at"`
	CreatedAt    time.Time   `bson:"created_at" json:"created_at"`
}

// SharedStateEntry is a versioned (swarm_id, key) JSON value supporting
// compare-and-swap writes. Wrapped records how Value was boxed by Set so
// Get can unwrap it transparently: "scalar" for {value: x}, "raw" for
// {raw: x}, "" for values that were already objects/arrays.
type SharedStateEntry struct {
	ID        string      `bson:"_id" json:"id"`
	SwarmID   string      `bson:"swarm_id" json:"swarm_id"`
	Key       string      `bson:"key" json:"key"`
	Value     interface{} `bson:"value" json:"value"`
	Wrapped   string      `bson:"wrapped,omitempty" json:"-"`
	Version   int64       `bson:"version" json:"version"`
	UpdatedAt time.Time   `bson:"updated_at" json:"updated_at"`
	UpdatedBy string      `bson:"updated_by" json:"updated_by"`
	ExpiresAt *time.Time  `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
}

// TaskStatus is the SwarmTask state machine.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskFailed     TaskStatus = "FAILED"
)

// claimTimeout bounds how long a claimed task may stay IN_PROGRESS before
// the lazy reaper returns it to PENDING.
const claimTimeout = 10 * time.Minute

// SwarmTask is one unit of work in the dependency-aware task queue.
type SwarmTask struct {
	ID         string     `bson:"_id" json:"id"`
	SwarmID    string     `bson:"swarm_id" json:"swarm_id"`
	Title      string     `bson:"title" json:"title"`
	Priority   int        `bson:"priority" json:"priority"`
	Status     TaskStatus `bson:"status" json:"status"`
	DependsOn  []string   `bson:"depends_on,omitempty" json:"depends_on,omitempty"`
	Deadline   *time.Time `bson:"deadline,omitempty" json:"deadline,omitempty"`
	AssignedTo string     `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	StartedAt  *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	ClaimedAt  *time.Time `bson:"claimed_at,omitempty" json:"claimed_at,omitempty"`
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
}
