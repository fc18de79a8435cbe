package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"rlmengine/internal/apperr"
	"rlmengine/internal/domain"
	"rlmengine/internal/webhook"
)

type fakeAdminStore struct {
	workspaces map[string]domain.Workspace
	clients    map[string]domain.IntegratorClient
	keys       map[string]domain.ClientAPIKey
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{
		workspaces: map[string]domain.Workspace{},
		clients:    map[string]domain.IntegratorClient{},
		keys:       map[string]domain.ClientAPIKey{},
	}
}

func (f *fakeAdminStore) CreateWorkspace(ctx context.Context, w domain.Workspace) (domain.Workspace, error) {
	w.ID = "ws1"
	f.workspaces[w.ID] = w
	return w, nil
}
func (f *fakeAdminStore) GetWorkspace(ctx context.Context, id string) (domain.Workspace, error) {
	w, ok := f.workspaces[id]
	if !ok {
		return domain.Workspace{}, notFoundErr("workspace")
	}
	return w, nil
}
func (f *fakeAdminStore) ListWorkspaces(ctx context.Context) ([]domain.Workspace, error) {
	var out []domain.Workspace
	for _, w := range f.workspaces {
		out = append(out, w)
	}
	return out, nil
}
func (f *fakeAdminStore) UpdateWorkspace(ctx context.Context, id, webhookURL string) (domain.Workspace, error) {
	w, ok := f.workspaces[id]
	if !ok {
		return domain.Workspace{}, notFoundErr("workspace")
	}
	w.WebhookURL = webhookURL
	f.workspaces[id] = w
	return w, nil
}
func (f *fakeAdminStore) DeleteWorkspace(ctx context.Context, id string) error {
	if _, ok := f.workspaces[id]; !ok {
		return notFoundErr("workspace")
	}
	delete(f.workspaces, id)
	return nil
}
func (f *fakeAdminStore) CreateClient(ctx context.Context, c domain.IntegratorClient) (domain.IntegratorClient, error) {
	c.ID = "client1"
	f.clients[c.ID] = c
	return c, nil
}
func (f *fakeAdminStore) GetClient(ctx context.Context, id string) (domain.IntegratorClient, error) {
	c, ok := f.clients[id]
	if !ok {
		return domain.IntegratorClient{}, notFoundErr("client")
	}
	return c, nil
}
func (f *fakeAdminStore) ListClients(ctx context.Context, workspaceID string) ([]domain.IntegratorClient, error) {
	var out []domain.IntegratorClient
	for _, c := range f.clients {
		if c.WorkspaceID == workspaceID {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeAdminStore) UpdateClient(ctx context.Context, id string, bundle domain.BundleTier) (domain.IntegratorClient, error) {
	c, ok := f.clients[id]
	if !ok {
		return domain.IntegratorClient{}, notFoundErr("client")
	}
	c.Bundle = bundle
	f.clients[id] = c
	return c, nil
}
func (f *fakeAdminStore) DeleteClient(ctx context.Context, id string) error {
	if _, ok := f.clients[id]; !ok {
		return notFoundErr("client")
	}
	delete(f.clients, id)
	return nil
}
func (f *fakeAdminStore) CreateClientAPIKey(ctx context.Context, clientID string) (domain.ClientAPIKey, string, error) {
	key := domain.ClientAPIKey{ID: "key1", ClientID: clientID, Prefix: "snipara_ic_"}
	f.keys[key.ID] = key
	return key, "snipara_ic_rawvalue", nil
}
func (f *fakeAdminStore) ListClientAPIKeys(ctx context.Context, clientID string) ([]domain.ClientAPIKey, error) {
	var out []domain.ClientAPIKey
	for _, k := range f.keys {
		if k.ClientID == clientID {
			out = append(out, k)
		}
	}
	return out, nil
}
func (f *fakeAdminStore) RevokeClientAPIKey(ctx context.Context, id string) error {
	if _, ok := f.keys[id]; !ok {
		return notFoundErr("key")
	}
	delete(f.keys, id)
	return nil
}
func (f *fakeAdminStore) WorkspaceTarget(ctx context.Context, workspaceID string) (webhook.Target, error) {
	w, ok := f.workspaces[workspaceID]
	if !ok {
		return webhook.Target{}, nil
	}
	return webhook.Target{URL: w.WebhookURL, Secret: w.WebhookSecret}, nil
}

func notFoundErr(what string) error {
	return apperr.New(apperr.KindNotFound, what+" not found")
}

func newTestAdminRouter(store *fakeAdminStore) (*gin.Engine, *AdminHandler) {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	h := NewAdminHandler(store, nil, nil)
	h.RegisterRoutes(g.Group("/v1/integrator"))
	return g, h
}

func TestCreateWorkspaceReturns201(t *testing.T) {
	store := newFakeAdminStore()
	g, _ := newTestAdminRouter(store)

	body, _ := json.Marshal(map[string]string{"name": "Acme", "owner_id": "user1"})
	req := httptest.NewRequest(http.MethodPost, "/v1/integrator/workspaces", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateWorkspaceRejectsMissingFields(t *testing.T) {
	store := newFakeAdminStore()
	g, _ := newTestAdminRouter(store)

	req := httptest.NewRequest(http.MethodPost, "/v1/integrator/workspaces", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetWorkspaceNotFoundMapsTo404(t *testing.T) {
	store := newFakeAdminStore()
	g, _ := newTestAdminRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/v1/integrator/workspaces/missing", nil)
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateClientThenListUnderWorkspace(t *testing.T) {
	store := newFakeAdminStore()
	store.workspaces["ws1"] = domain.Workspace{ID: "ws1", Name: "Acme"}
	g, _ := newTestAdminRouter(store)

	body, _ := json.Marshal(map[string]string{"name": "Downstream", "bundle": string(domain.BundleStandard)})
	req := httptest.NewRequest(http.MethodPost, "/v1/integrator/workspaces/ws1/clients", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	listReq := httptest.NewRequest(http.MethodGet, "/v1/integrator/workspaces/ws1/clients", nil)
	listRec := httptest.NewRecorder()
	g.ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listRec.Code)
	}
	var out struct {
		Clients []domain.IntegratorClient `json:"clients"`
	}
	if err := json.Unmarshal(listRec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(out.Clients) != 1 {
		t.Fatalf("expected 1 client, got %d", len(out.Clients))
	}
}

func TestCreateClientAPIKeyReturnsRawKeyOnce(t *testing.T) {
	store := newFakeAdminStore()
	store.clients["client1"] = domain.IntegratorClient{ID: "client1", WorkspaceID: "ws1"}
	g, _ := newTestAdminRouter(store)

	req := httptest.NewRequest(http.MethodPost, "/v1/integrator/clients/client1/keys", nil)
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out["api_key"] == nil || out["api_key"] == "" {
		t.Fatalf("expected raw api_key in response, got %v", out)
	}
}

func TestRevokeClientAPIKey(t *testing.T) {
	store := newFakeAdminStore()
	store.keys["key1"] = domain.ClientAPIKey{ID: "key1", ClientID: "client1"}
	g, _ := newTestAdminRouter(store)

	req := httptest.NewRequest(http.MethodDelete, "/v1/integrator/keys/key1", nil)
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := store.keys["key1"]; ok {
		t.Fatalf("expected key to be removed")
	}
}
