// Package domain holds the server's persistent entity types: projects,
// teams, subscriptions, credentials, and the swarm/memory/summary records
// that sit on top of them. These are storage-agnostic structs; the
// packages under internal/ that read and write them own the Mongo/pgx
// wiring.
package domain

import "time"

// Plan is one of the four subscription tiers.
type Plan string

const (
	PlanFree       Plan = "FREE"
	PlanPro        Plan = "PRO"
	PlanTeam       Plan = "TEAM"
	PlanEnterprise Plan = "ENTERPRISE"
)

// AccessLevel gates what a credential may do against a project.
type AccessLevel string

const (
	AccessNone   AccessLevel = "NONE"
	AccessViewer AccessLevel = "VIEWER"
	AccessEditor AccessLevel = "EDITOR"
	AccessAdmin  AccessLevel = "ADMIN"
)

// Team owns one or more projects and carries the active subscription that
// resolves to a Plan.
type Team struct {
	ID             string    `bson:"_id" json:"id"`
	Name           string    `bson:"name" json:"name"`
	SubscriptionID string    `bson:"subscription_id" json:"subscription_id"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// Subscription resolves a team to a billing Plan.
type Subscription struct {
	ID        string    `bson:"_id" json:"id"`
	TeamID    string    `bson:"team_id" json:"team_id"`
	Plan      Plan      `bson:"plan" json:"plan"`
	ActiveAt  time.Time `bson:"active_at" json:"active_at"`
	CanceledAt *time.Time `bson:"canceled_at,omitempty" json:"canceled_at,omitempty"`
}

// Project is the unit of documentation indexing and access control.
type Project struct {
	ID                string            `bson:"_id" json:"id"`
	TeamID            string            `bson:"team_id" json:"team_id"`
	Slug              string            `bson:"slug" json:"slug"`
	Name              string            `bson:"name" json:"name"`
	MemorySaveOnCommit bool             `bson:"memory_save_on_commit" json:"memory_save_on_commit"`
	SharedCollectionIDs []string        `bson:"shared_collection_ids,omitempty" json:"shared_collection_ids,omitempty"`
	Settings          map[string]string `bson:"settings,omitempty" json:"settings,omitempty"`
	CreatedAt         time.Time         `bson:"created_at" json:"created_at"`
}

// APIKey is a user- or team-scoped credential. Raw key material is never
// stored; Hash is SHA-256 of the raw key and Prefix is its first 12
// characters, retained for audit logging.
type APIKey struct {
	ID         string     `bson:"_id" json:"id"`
	Hash       string     `bson:"hash" json:"-"`
	Prefix     string     `bson:"prefix" json:"prefix"`
	TeamID     string     `bson:"team_id,omitempty" json:"team_id,omitempty"`
	UserID     string     `bson:"user_id,omitempty" json:"user_id,omitempty"`
	ProjectAccess map[string]AccessLevel `bson:"project_access,omitempty" json:"project_access,omitempty"`
	ExpiresAt  *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	RevokedAt  *time.Time `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
}

// OAuthToken is a project-scoped credential issued via the OAuth flow,
// identified at the wire level by the "snipara_at_" prefix.
type OAuthToken struct {
	ID        string     `bson:"_id" json:"id"`
	Hash      string     `bson:"hash" json:"-"`
	Prefix    string     `bson:"prefix" json:"prefix"`
	ProjectID string     `bson:"project_id" json:"project_id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	RevokedAt *time.Time `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
}

// Workspace is an integrator's top-level account: it owns zero or more
// IntegratorClients and is the unit of webhook configuration.
type Workspace struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	OwnerID       string    `bson:"owner_id" json:"owner_id"`
	WebhookURL    string    `bson:"webhook_url,omitempty" json:"webhook_url,omitempty"`
	WebhookSecret string    `bson:"webhook_secret,omitempty" json:"-"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// BundleTier is an integrator client's provisioned quota tier.
type BundleTier string

const (
	BundleLite     BundleTier = "LITE"
	BundleStandard BundleTier = "STANDARD"
	BundleUnlimited BundleTier = "UNLIMITED"
)

// IntegratorClient is a downstream tenant provisioned by an integrator
// workspace, identified by "snipara_ic_" keys.
type IntegratorClient struct {
	ID          string     `bson:"_id" json:"id"`
	WorkspaceID string     `bson:"workspace_id" json:"workspace_id"`
	Name        string     `bson:"name" json:"name"`
	Bundle      BundleTier `bson:"bundle" json:"bundle"`
	WebhookURL  string     `bson:"webhook_url,omitempty" json:"webhook_url,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
}

// ClientAPIKey identifies a provisioned IntegratorClient at the wire level.
type ClientAPIKey struct {
	ID         string     `bson:"_id" json:"id"`
	Hash       string     `bson:"hash" json:"-"`
	Prefix     string     `bson:"prefix" json:"prefix"`
	ClientID   string     `bson:"client_id" json:"client_id"`
	ExpiresAt  *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	RevokedAt  *time.Time `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
}

// UsageCounter tracks monthly per-project query volume.
type UsageCounter struct {
	ProjectID  string `bson:"project_id" json:"project_id"`
	YearMonth  string `bson:"year_month" json:"year_month"` // "2026-07"
	QueryCount int64  `bson:"query_count" json:"query_count"`
}
