package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"rlmengine/internal/security"
)

func TestDeliverSignsPayloadWhenSecretConfigured(t *testing.T) {
	var gotSig, gotEvent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Snipara-Signature")
		gotEvent = r.Header.Get("X-Snipara-Event")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDeliverer(nil)
	event := Event{ID: "evt1", WorkspaceID: "ws1", Type: EventClientCreated, Data: map[string]interface{}{"client_id": "c1"}}
	err := d.Deliver(context.Background(), Target{URL: srv.URL, Secret: "shh"}, event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotEvent != EventClientCreated {
		t.Fatalf("expected event header %q, got %q", EventClientCreated, gotEvent)
	}
	if gotSig == "" {
		t.Fatalf("expected signature header to be set")
	}
}

func TestDeliverOmitsSignatureWhenNoSecret(t *testing.T) {
	var gotSig string
	sawSig := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Snipara-Signature")
		sawSig = gotSig != ""
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDeliverer(nil)
	err := d.Deliver(context.Background(), Target{URL: srv.URL}, Event{ID: "evt2", Type: EventAPIKeyRevoked})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawSig {
		t.Fatalf("expected no signature header, got %q", gotSig)
	}
}

func TestDeliverRetriesOnFailureThenSucceeds(t *testing.T) {
	defer withFastBackoff()()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDeliverer(nil)
	start := time.Now()
	err := d.Deliver(context.Background(), Target{URL: srv.URL}, Event{ID: "evt3", Type: EventUsageLimitWarning})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if time.Since(start) < backoff(1) {
		t.Fatalf("expected delivery to wait for the first backoff before retrying")
	}
}

func TestDeliverFailsAfterMaxAttempts(t *testing.T) {
	defer withFastBackoff()()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDeliverer(nil)
	err := d.Deliver(context.Background(), Target{URL: srv.URL}, Event{ID: "evt4", Type: EventClientDeleted})
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if atomic.LoadInt32(&calls) != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, calls)
	}
}

func TestDeliverReturnsErrorWhenNoURLConfigured(t *testing.T) {
	d := NewDeliverer(nil)
	err := d.Deliver(context.Background(), Target{}, Event{ID: "evt5", WorkspaceID: "ws9"})
	if err == nil {
		t.Fatalf("expected error for missing URL")
	}
}

func TestDeliverRespectsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDeliverer(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Deliver(ctx, Target{URL: srv.URL}, Event{ID: "evt6"})
	if err == nil {
		t.Fatalf("expected error when context is already canceled")
	}
}

// withFastBackoff shrinks backoffUnit for the duration of a test and
// returns a restore function.
func withFastBackoff() func() {
	prev := backoffUnit
	backoffUnit = time.Millisecond
	return func() { backoffUnit = prev }
}

func TestSignatureMatchesSecurityPackage(t *testing.T) {
	body := []byte(`{"a":1}`)
	want := security.SignWebhookPayload("topsecret", body)
	if want == "" {
		t.Fatalf("expected non-empty signature")
	}

	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Snipara-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDeliverer(nil)
	err := d.Deliver(context.Background(), Target{URL: srv.URL, Secret: "topsecret"}, Event{ID: "evt7", Type: EventClientUpdated})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expected := "sha256=" + security.SignWebhookPayload("topsecret", gotBody); gotSig != expected {
		t.Fatalf("expected signature header %q, got %q", expected, gotSig)
	}
}
