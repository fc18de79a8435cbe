// Package webhook delivers signed integrator events to a workspace's
// configured endpoint. The event catalog below covers client and API key
// lifecycle changes and usage limit crossings; within this server only the
// integrator admin handler raises events (client create/update/delete and
// API key creation), so the key-revoked and usage-limit types are defined
// but never sent. Delivery is fire-and-forget with bounded exponential
// backoff; a webhook subscriber that is down does not block the request
// that triggered the event.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"rlmengine/internal/security"
)

// Event types, mirroring the integrator-facing event catalog.
const (
	EventClientCreated      = "client.created"
	EventClientUpdated      = "client.updated"
	EventClientDeleted      = "client.deleted"
	EventAPIKeyCreated      = "api_key.created"
	EventAPIKeyRevoked      = "api_key.revoked"
	EventUsageLimitWarning  = "usage.limit_warning"
	EventUsageLimitExceeded = "usage.limit_exceeded"
)

const (
	maxAttempts  = 3
	deliveryTimeout = 30 * time.Second
)

// backoffUnit scales the retry schedule: 2x, 4x, 8x this unit. Tests
// shrink it to keep retry coverage fast; production leaves it at its
// default of one second.
var backoffUnit = time.Second

// backoff returns the delay before attempt N (1-indexed): 2, 4, 8 units.
func backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * backoffUnit
}

// Event is a single occurrence queued for delivery to a workspace's
// webhook endpoint.
type Event struct {
	ID          string                 `json:"event_id"`
	WorkspaceID string                 `json:"workspace_id"`
	Type        string                 `json:"event_type"`
	Data        map[string]interface{} `json:"data"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Target is the destination a workspace has configured for webhook
// delivery. Secret may be empty, in which case deliveries are sent
// unsigned.
type Target struct {
	URL    string
	Secret string
}

// Deliverer sends webhook events over HTTP, signing the body when the
// target carries a secret and retrying transient failures with
// exponential backoff.
type Deliverer struct {
	client *http.Client
	logger *zap.Logger
}

// NewDeliverer builds a Deliverer. A nil logger is replaced with a no-op
// logger so callers never need a nil check.
func NewDeliverer(logger *zap.Logger) *Deliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deliverer{
		client: &http.Client{Timeout: deliveryTimeout},
		logger: logger,
	}
}

// Deliver sends event to target, retrying up to maxAttempts times with
// exponential backoff on network errors or non-2xx responses. It
// returns the last error encountered if all attempts fail; callers
// typically run Deliver in a goroutine and only log the outcome, since
// a slow or unreachable subscriber must never block the caller that
// raised the event.
func (d *Deliverer) Deliver(ctx context.Context, target Target, event Event) error {
	if target.URL == "" {
		return fmt.Errorf("webhook: no URL configured for workspace %s", event.WorkspaceID)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = d.attempt(ctx, target, event, body)
		if lastErr == nil {
			d.logger.Info("webhook delivered",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.Type),
				zap.Int("attempt", attempt))
			return nil
		}

		d.logger.Warn("webhook delivery failed",
			zap.String("event_id", event.ID),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))

		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("webhook: delivery failed after %d attempts: %w", maxAttempts, lastErr)
}

func (d *Deliverer) attempt(ctx context.Context, target Target, event Event, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Snipara-Event", event.Type)
	req.Header.Set("X-Snipara-Delivery", event.ID)
	if target.Secret != "" {
		sig := security.SignWebhookPayload(target.Secret, body)
		req.Header.Set("X-Snipara-Signature", "sha256="+sig)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("subscriber returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync runs Deliver in its own goroutine and logs the final
// outcome, for call sites that raise an event as a side effect of a
// request they must not delay.
func (d *Deliverer) DeliverAsync(target Target, event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout*time.Duration(maxAttempts)+time.Duration(maxAttempts)*8*time.Second)
		defer cancel()
		if err := d.Deliver(ctx, target, event); err != nil {
			d.logger.Error("webhook abandoned", zap.String("event_id", event.ID), zap.Error(err))
		}
	}()
}
