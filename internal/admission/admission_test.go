package admission

import (
	"context"
	"testing"
	"time"

	"rlmengine/internal/domain"
	"rlmengine/internal/security"
)

type fakeKeyResolver struct {
	apiKeys    map[string]*domain.APIKey
	oauthTokens map[string]*domain.OAuthToken
	clientKeys map[string]*domain.ClientAPIKey
}

func (f *fakeKeyResolver) ResolveAPIKey(_ context.Context, hash string) (*domain.APIKey, error) {
	return f.apiKeys[hash], nil
}
func (f *fakeKeyResolver) ResolveOAuthToken(_ context.Context, hash string) (*domain.OAuthToken, error) {
	return f.oauthTokens[hash], nil
}
func (f *fakeKeyResolver) ResolveClientAPIKey(_ context.Context, hash string) (*domain.ClientAPIKey, error) {
	return f.clientKeys[hash], nil
}

type fakeTeamStore struct{ p domain.Plan }

func (f *fakeTeamStore) TeamPlan(_ context.Context, _ string) (domain.Plan, error) { return f.p, nil }

type fakeIntegratorStore struct{ tier domain.BundleTier }

func (f *fakeIntegratorStore) ClientBundle(_ context.Context, _ string) (domain.BundleTier, error) {
	return f.tier, nil
}

func TestAdmitValidAPIKey(t *testing.T) {
	rawKey := "rlm_testkey123456"
	hash := security.HashAPIKey(rawKey)
	resolver := &fakeKeyResolver{apiKeys: map[string]*domain.APIKey{
		hash: {ID: "key1", TeamID: "team1", Hash: hash},
	}}
	pipeline := &Pipeline{Keys: resolver, Teams: &fakeTeamStore{p: domain.PlanPro}}

	principal, err := pipeline.Admit(context.Background(), Request{RawKey: rawKey, ProjectID: "proj1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if principal.Plan != domain.PlanPro {
		t.Fatalf("expected PRO plan resolved, got %v", principal.Plan)
	}
}

func TestAdmitRejectsUnknownKey(t *testing.T) {
	resolver := &fakeKeyResolver{apiKeys: map[string]*domain.APIKey{}}
	pipeline := &Pipeline{Keys: resolver}

	_, err := pipeline.Admit(context.Background(), Request{RawKey: "rlm_unknown", ProjectID: "proj1"})
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestAdmitRejectsExpiredOAuthToken(t *testing.T) {
	rawKey := "snipara_at_expiredtoken"
	hash := security.HashAPIKey(rawKey)
	past := time.Now().Add(-time.Hour)
	resolver := &fakeKeyResolver{oauthTokens: map[string]*domain.OAuthToken{
		hash: {ID: "tok1", ProjectID: "proj1", ExpiresAt: &past},
	}}
	pipeline := &Pipeline{Keys: resolver}

	_, err := pipeline.Admit(context.Background(), Request{RawKey: rawKey, ProjectID: "proj1"})
	if err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestAdmitResolvesIntegratorBundle(t *testing.T) {
	rawKey := "snipara_ic_clientkey"
	hash := security.HashAPIKey(rawKey)
	resolver := &fakeKeyResolver{clientKeys: map[string]*domain.ClientAPIKey{
		hash: {ID: "client1"},
	}}
	pipeline := &Pipeline{Keys: resolver, Integrators: &fakeIntegratorStore{tier: domain.BundleStandard}}

	principal, err := pipeline.Admit(context.Background(), Request{RawKey: rawKey, ProjectID: "proj1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !principal.IsIntegrator || principal.BundleTier != domain.BundleStandard {
		t.Fatalf("expected integrator principal with STANDARD bundle, got %+v", principal)
	}
}

func TestAdmitDeniesNoneAccessProjectKey(t *testing.T) {
	rawKey := "rlm_noaccesskey"
	hash := security.HashAPIKey(rawKey)
	resolver := &fakeKeyResolver{apiKeys: map[string]*domain.APIKey{
		hash: {ID: "key2", ProjectAccess: map[string]domain.AccessLevel{"": domain.AccessNone}},
	}}
	pipeline := &Pipeline{Keys: resolver}

	_, err := pipeline.Admit(context.Background(), Request{RawKey: rawKey, ProjectID: "proj1"})
	if err == nil {
		t.Fatalf("expected access-denial error")
	}
}
