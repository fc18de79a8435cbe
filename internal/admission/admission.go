// Package admission implements the ordered request-admission pipeline run
// before any tool handler: anti-scan blocking, credential resolution,
// access-denial checks, plan resolution, rate limiting, monthly usage,
// and integrator bundle quotas.
package admission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rlmengine/internal/apperr"
	"rlmengine/internal/domain"
	"rlmengine/internal/plan"
	"rlmengine/internal/ratelimit"
	"rlmengine/internal/security"
)

const (
	prefixOAuth      = "snipara_at_"
	prefixIntegrator = "snipara_ic_"
	prefixLength     = 12
)

// PrincipalKind distinguishes which credential branch resolved a request.
type PrincipalKind string

const (
	PrincipalOAuth      PrincipalKind = "oauth"
	PrincipalIntegrator PrincipalKind = "integrator"
	PrincipalAPIKey     PrincipalKind = "api_key"
)

// Principal is the resolved identity and authorization context for an
// admitted request.
type Principal struct {
	Kind         PrincipalKind
	KeyID        string
	UserID       string
	TeamID       string
	ProjectID    string
	Plan         domain.Plan
	AccessLevel  domain.AccessLevel
	BundleTier   domain.BundleTier
	IsIntegrator bool
}

// KeyResolver looks up credentials by their SHA-256 hash.
type KeyResolver interface {
	ResolveAPIKey(ctx context.Context, hash string) (*domain.APIKey, error)
	ResolveOAuthToken(ctx context.Context, hash string) (*domain.OAuthToken, error)
	ResolveClientAPIKey(ctx context.Context, hash string) (*domain.ClientAPIKey, error)
}

// TeamStore resolves a team's current plan.
type TeamStore interface {
	TeamPlan(ctx context.Context, teamID string) (domain.Plan, error)
}

// IntegratorStore resolves an integrator client's bundle tier.
type IntegratorStore interface {
	ClientBundle(ctx context.Context, clientID string) (domain.BundleTier, error)
}

// Request is one inbound call to admit.
type Request struct {
	RawKey    string
	ProjectID string
}

// Pipeline wires together the admission gates.
type Pipeline struct {
	Keys        KeyResolver
	Teams       TeamStore
	Integrators IntegratorStore
	Limiter     *ratelimit.Limiter
	Usage       *ratelimit.MonthlyUsage
}

// Admit runs the full ordered admission pipeline and returns the resolved
// Principal, or a sanitizable apperr.Error describing the first gate that
// failed.
func (p *Pipeline) Admit(ctx context.Context, req Request) (*Principal, error) {
	prefix := keyPrefix(req.RawKey)

	if p.Limiter != nil {
		blocked, err := p.Limiter.IsBlocked(ctx, prefix)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "rate limit check failed", err)
		}
		if blocked {
			return nil, apperr.New(apperr.KindRateLimited, "Rate limit exceeded: this key prefix is temporarily blocked")
		}
	}

	principal, err := p.resolveAuth(ctx, req.RawKey, prefix)
	if err != nil {
		if p.Limiter != nil {
			_ = p.Limiter.RecordAuthFailure(ctx, prefix)
		}
		return nil, err
	}
	principal.ProjectID = req.ProjectID

	if principal.AccessLevel == domain.AccessNone {
		if p.Limiter != nil {
			_ = p.Limiter.RecordAuthFailure(ctx, prefix)
		}
		return nil, apperr.New(apperr.KindAccess, "Access denied: request access for this project")
	}

	if err := p.resolvePlan(ctx, principal); err != nil {
		return nil, err
	}

	if p.Limiter != nil {
		limit := plan.For(principal.Plan).RatePerMinute
		if principal.IsIntegrator {
			limit = plan.PartnerBundleRate
		}
		allowed, current, err := p.Limiter.Allow(ctx, principal.KeyID, limit)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "rate limit check failed", err)
		}
		if !allowed {
			return nil, apperr.New(apperr.KindRateLimited, fmt.Sprintf("Rate limit exceeded: %d/%d requests this minute", current, limit))
		}
	}

	if p.Usage != nil && !principal.IsIntegrator {
		current, err := p.Usage.CurrentMonth(ctx, principal.ProjectID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "usage check failed", err)
		}
		ceiling := plan.For(principal.Plan).MonthlyQueries
		if ratelimit.Exceeds(current, ceiling) {
			return nil, apperr.New(apperr.KindQuotaExceeded, fmt.Sprintf("Monthly quota exceeded: %d/%d queries", current, ceiling))
		}
	}

	if principal.IsIntegrator && p.Usage != nil {
		current, err := p.Usage.CurrentMonth(ctx, "integrator:"+principal.KeyID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "bundle usage check failed", err)
		}
		ceiling := plan.BundleMonthlyQueries(principal.BundleTier)
		if ratelimit.Exceeds(current, ceiling) {
			return nil, apperr.New(apperr.KindQuotaExceeded, fmt.Sprintf("Bundle quota exceeded: %d/%d queries", current, ceiling))
		}
	}

	return principal, nil
}

func (p *Pipeline) resolveAuth(ctx context.Context, rawKey, prefix string) (*Principal, error) {
	hash := security.HashAPIKey(rawKey)

	switch {
	case strings.HasPrefix(rawKey, prefixOAuth):
		tok, err := p.Keys.ResolveOAuthToken(ctx, hash)
		if err != nil || tok == nil {
			return nil, apperr.New(apperr.KindAuth, "Invalid API key: re-authenticate via /oauth/authorize")
		}
		if isExpiredOrRevoked(tok.ExpiresAt, tok.RevokedAt) {
			return nil, apperr.New(apperr.KindAuth, "Invalid API key: token expired or revoked, re-authenticate via /oauth/authorize")
		}
		return &Principal{
			Kind:        PrincipalOAuth,
			KeyID:       tok.ID,
			UserID:      tok.UserID,
			ProjectID:   tok.ProjectID,
			AccessLevel: domain.AccessEditor,
		}, nil

	case strings.HasPrefix(rawKey, prefixIntegrator):
		client, err := p.Keys.ResolveClientAPIKey(ctx, hash)
		if err != nil || client == nil {
			return nil, apperr.New(apperr.KindAuth, "Invalid API key")
		}
		if isExpiredOrRevoked(client.ExpiresAt, client.RevokedAt) {
			return nil, apperr.New(apperr.KindAuth, "Invalid API key: revoked or expired")
		}
		return &Principal{
			Kind:         PrincipalIntegrator,
			KeyID:        client.ID,
			IsIntegrator: true,
			AccessLevel:  domain.AccessEditor,
		}, nil

	default:
		key, err := p.Keys.ResolveAPIKey(ctx, hash)
		if err != nil || key == nil {
			return nil, apperr.New(apperr.KindAuth, "Invalid API key")
		}
		if isExpiredOrRevoked(key.ExpiresAt, key.RevokedAt) {
			return nil, apperr.New(apperr.KindAuth, "Invalid API key: revoked or expired")
		}
		access := domain.AccessEditor
		if key.ProjectAccess != nil {
			if lvl, ok := key.ProjectAccess[""]; ok {
				access = lvl
			}
		}
		return &Principal{
			Kind:        PrincipalAPIKey,
			KeyID:       key.ID,
			UserID:      key.UserID,
			TeamID:      key.TeamID,
			AccessLevel: access,
		}, nil
	}
}

// ResolveProjectAccess looks up a credential's access level for a
// specific project once it is known, overriding the default assigned
// during auth resolution. Call this after Admit when a key carries
// per-project overrides (team API keys).
func ResolveProjectAccess(key *domain.APIKey, projectID string) domain.AccessLevel {
	if key.ProjectAccess == nil {
		return domain.AccessEditor
	}
	if lvl, ok := key.ProjectAccess[projectID]; ok {
		return lvl
	}
	return domain.AccessEditor
}

func (p *Pipeline) resolvePlan(ctx context.Context, principal *Principal) error {
	if principal.IsIntegrator {
		if p.Integrators == nil {
			return nil
		}
		bundle, err := p.Integrators.ClientBundle(ctx, principal.KeyID)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to resolve bundle", err)
		}
		principal.BundleTier = bundle
		return nil
	}
	if p.Teams == nil || principal.TeamID == "" {
		principal.Plan = domain.PlanFree
		return nil
	}
	teamPlan, err := p.Teams.TeamPlan(ctx, principal.TeamID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to resolve plan", err)
	}
	principal.Plan = teamPlan
	return nil
}

func keyPrefix(rawKey string) string {
	if len(rawKey) <= prefixLength {
		return rawKey
	}
	return rawKey[:prefixLength]
}

func isExpiredOrRevoked(expiresAt, revokedAt *time.Time) bool {
	if revokedAt != nil {
		return true
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return true
	}
	return false
}
