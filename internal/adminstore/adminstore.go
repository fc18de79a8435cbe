// Package adminstore persists integrator workspaces, their provisioned
// clients, and client API keys in MongoDB, backing the Integrator Admin
// REST surface.
package adminstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rlmengine/internal/apperr"
	"rlmengine/internal/domain"
	"rlmengine/internal/security"
	"rlmengine/internal/webhook"
)

// Store implements restapi.AdminStore against three Mongo collections:
// workspaces, integrator clients, and client API keys.
type Store struct {
	workspaces *mongo.Collection
	clients    *mongo.Collection
	keys       *mongo.Collection
}

// NewStore builds a Store, indexing clients by workspace and keys by
// client for the list endpoints.
func NewStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	clients := db.Collection("integrator_clients")
	if _, err := clients.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "workspace_id", Value: 1}},
	}); err != nil {
		return nil, fmt.Errorf("adminstore: create client index: %w", err)
	}
	keys := db.Collection("client_api_keys")
	if _, err := keys.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "client_id", Value: 1}},
	}); err != nil {
		return nil, fmt.Errorf("adminstore: create key index: %w", err)
	}
	return &Store{
		workspaces: db.Collection("integrator_workspaces"),
		clients:    clients,
		keys:       keys,
	}, nil
}

func (s *Store) CreateWorkspace(ctx context.Context, w domain.Workspace) (domain.Workspace, error) {
	w.ID = uuid.New().String()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	if _, err := s.workspaces.InsertOne(ctx, w); err != nil {
		return domain.Workspace{}, fmt.Errorf("adminstore: create workspace: %w", err)
	}
	return w, nil
}

func (s *Store) GetWorkspace(ctx context.Context, id string) (domain.Workspace, error) {
	var w domain.Workspace
	err := s.workspaces.FindOne(ctx, bson.M{"_id": id}).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return domain.Workspace{}, apperr.New(apperr.KindNotFound, "workspace not found")
	}
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("adminstore: get workspace: %w", err)
	}
	return w, nil
}

func (s *Store) ListWorkspaces(ctx context.Context) ([]domain.Workspace, error) {
	cursor, err := s.workspaces.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("adminstore: list workspaces: %w", err)
	}
	defer cursor.Close(ctx)
	var out []domain.Workspace
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("adminstore: decode workspaces: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateWorkspace(ctx context.Context, id, webhookURL string) (domain.Workspace, error) {
	after := options.After
	var w domain.Workspace
	err := s.workspaces.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"webhook_url": webhookURL}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return domain.Workspace{}, apperr.New(apperr.KindNotFound, "workspace not found")
	}
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("adminstore: update workspace: %w", err)
	}
	return w, nil
}

func (s *Store) DeleteWorkspace(ctx context.Context, id string) error {
	result, err := s.workspaces.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("adminstore: delete workspace: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperr.New(apperr.KindNotFound, "workspace not found")
	}
	return nil
}

func (s *Store) CreateClient(ctx context.Context, c domain.IntegratorClient) (domain.IntegratorClient, error) {
	c.ID = uuid.New().String()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if _, err := s.clients.InsertOne(ctx, c); err != nil {
		return domain.IntegratorClient{}, fmt.Errorf("adminstore: create client: %w", err)
	}
	return c, nil
}

func (s *Store) GetClient(ctx context.Context, id string) (domain.IntegratorClient, error) {
	var c domain.IntegratorClient
	err := s.clients.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return domain.IntegratorClient{}, apperr.New(apperr.KindNotFound, "client not found")
	}
	if err != nil {
		return domain.IntegratorClient{}, fmt.Errorf("adminstore: get client: %w", err)
	}
	return c, nil
}

func (s *Store) ListClients(ctx context.Context, workspaceID string) ([]domain.IntegratorClient, error) {
	cursor, err := s.clients.Find(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return nil, fmt.Errorf("adminstore: list clients: %w", err)
	}
	defer cursor.Close(ctx)
	var out []domain.IntegratorClient
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("adminstore: decode clients: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateClient(ctx context.Context, id string, bundle domain.BundleTier) (domain.IntegratorClient, error) {
	after := options.After
	var c domain.IntegratorClient
	err := s.clients.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"bundle": bundle}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return domain.IntegratorClient{}, apperr.New(apperr.KindNotFound, "client not found")
	}
	if err != nil {
		return domain.IntegratorClient{}, fmt.Errorf("adminstore: update client: %w", err)
	}
	return c, nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	result, err := s.clients.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("adminstore: delete client: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperr.New(apperr.KindNotFound, "client not found")
	}
	return nil
}

// CreateClientAPIKey generates a fresh "snipara_ic_" key, stores only its
// hash and prefix, and returns the raw key exactly once to the caller.
func (s *Store) CreateClientAPIKey(ctx context.Context, clientID string) (domain.ClientAPIKey, string, error) {
	raw, err := generateClientKey()
	if err != nil {
		return domain.ClientAPIKey{}, "", fmt.Errorf("adminstore: generate key: %w", err)
	}
	key := domain.ClientAPIKey{
		ID:        uuid.New().String(),
		Hash:      security.HashAPIKey(raw),
		Prefix:    raw[:12],
		ClientID:  clientID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.keys.InsertOne(ctx, key); err != nil {
		return domain.ClientAPIKey{}, "", fmt.Errorf("adminstore: create key: %w", err)
	}
	return key, raw, nil
}

func (s *Store) ListClientAPIKeys(ctx context.Context, clientID string) ([]domain.ClientAPIKey, error) {
	cursor, err := s.keys.Find(ctx, bson.M{"client_id": clientID})
	if err != nil {
		return nil, fmt.Errorf("adminstore: list keys: %w", err)
	}
	defer cursor.Close(ctx)
	var out []domain.ClientAPIKey
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("adminstore: decode keys: %w", err)
	}
	return out, nil
}

func (s *Store) RevokeClientAPIKey(ctx context.Context, id string) error {
	now := time.Now().UTC()
	result, err := s.keys.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"revoked_at": now}})
	if err != nil {
		return fmt.Errorf("adminstore: revoke key: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "key not found")
	}
	return nil
}

// ClientBundle resolves an integrator client's provisioned bundle tier,
// satisfying admission.IntegratorStore for client-API-key requests.
func (s *Store) ClientBundle(ctx context.Context, clientID string) (domain.BundleTier, error) {
	c, err := s.GetClient(ctx, clientID)
	if err != nil {
		return "", err
	}
	return c.Bundle, nil
}

// WorkspaceTarget resolves a workspace's webhook URL into a delivery
// target. A workspace with no URL configured returns a zero-value
// target; callers treat that as "webhooks disabled" rather than an
// error.
func (s *Store) WorkspaceTarget(ctx context.Context, workspaceID string) (webhook.Target, error) {
	w, err := s.GetWorkspace(ctx, workspaceID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return webhook.Target{}, nil
		}
		return webhook.Target{}, err
	}
	return webhook.Target{URL: w.WebhookURL, Secret: w.WebhookSecret}, nil
}

func generateClientKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "snipara_ic_" + hex.EncodeToString(buf), nil
}
