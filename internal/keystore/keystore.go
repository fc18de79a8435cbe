// Package keystore persists API keys, OAuth tokens, teams, and
// subscriptions in MongoDB and implements the resolver interfaces the
// admission pipeline depends on, keeping that package storage-agnostic.
package keystore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"rlmengine/internal/domain"
)

// Store backs admission.KeyResolver and admission.TeamStore.
type Store struct {
	apiKeys       *mongo.Collection
	oauthTokens   *mongo.Collection
	teams         *mongo.Collection
	subscriptions *mongo.Collection
}

// NewStore creates a keystore.Store over db's collections.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		apiKeys:       db.Collection("api_keys"),
		oauthTokens:   db.Collection("oauth_tokens"),
		teams:         db.Collection("teams"),
		subscriptions: db.Collection("subscriptions"),
	}
}

// ResolveAPIKey looks up a user/team-scoped API key by its SHA-256 hash.
func (s *Store) ResolveAPIKey(ctx context.Context, hash string) (*domain.APIKey, error) {
	var key domain.APIKey
	err := s.apiKeys.FindOne(ctx, bson.M{"hash": hash}).Decode(&key)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: resolve api key: %w", err)
	}
	return &key, nil
}

// ResolveOAuthToken looks up a project-scoped OAuth token by its hash.
func (s *Store) ResolveOAuthToken(ctx context.Context, hash string) (*domain.OAuthToken, error) {
	var tok domain.OAuthToken
	err := s.oauthTokens.FindOne(ctx, bson.M{"hash": hash}).Decode(&tok)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: resolve oauth token: %w", err)
	}
	return &tok, nil
}

// ResolveClientAPIKey satisfies admission.KeyResolver's third branch by
// reading the client_api_keys collection directly by hash. rlmengine keeps
// that collection in adminstore, not here, since it is owned end-to-end
// by the Integrator Admin REST surface; this method exists so a single
// keystore.Store can be handed to admission.Pipeline without also
// depending on adminstore's Mongo wiring in callers that don't need it.
func (s *Store) ResolveClientAPIKey(ctx context.Context, hash string) (*domain.ClientAPIKey, error) {
	var key domain.ClientAPIKey
	err := s.apiKeys.Database().Collection("client_api_keys").FindOne(ctx, bson.M{"hash": hash}).Decode(&key)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: resolve client api key: %w", err)
	}
	return &key, nil
}

// TeamPlan resolves a team's currently active subscription plan,
// defaulting to FREE if the team carries no subscription record.
func (s *Store) TeamPlan(ctx context.Context, teamID string) (domain.Plan, error) {
	var sub domain.Subscription
	err := s.subscriptions.FindOne(ctx, bson.M{"team_id": teamID, "canceled_at": bson.M{"$exists": false}}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return domain.PlanFree, nil
	}
	if err != nil {
		return "", fmt.Errorf("keystore: resolve team plan: %w", err)
	}
	return sub.Plan, nil
}
