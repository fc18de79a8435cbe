package security

import "testing"

func TestHashAPIKeyDeterministic(t *testing.T) {
	if HashAPIKey("snipara_ic_abc123") != HashAPIKey("snipara_ic_abc123") {
		t.Fatalf("expected deterministic hash")
	}
}

func TestVerifyAPIKeyRoundTrip(t *testing.T) {
	hash := HashAPIKey("snipara_at_token")
	if !VerifyAPIKey("snipara_at_token", hash) {
		t.Fatalf("expected matching key to verify")
	}
	if VerifyAPIKey("wrong_token", hash) {
		t.Fatalf("expected mismatched key to fail verification")
	}
}

func TestSignAndVerifyWebhookPayload(t *testing.T) {
	body := []byte(`{"event":"memory.created"}`)
	sig := SignWebhookPayload("secret123", body)
	if !VerifyWebhookSignature("secret123", body, sig) {
		t.Fatalf("expected valid signature to verify")
	}
	if VerifyWebhookSignature("wrong-secret", body, sig) {
		t.Fatalf("expected wrong secret to fail verification")
	}
}

func TestVerifyWebhookSignatureRejectsTamperedBody(t *testing.T) {
	body := []byte(`{"event":"memory.created"}`)
	sig := SignWebhookPayload("secret123", body)
	tampered := []byte(`{"event":"memory.deleted"}`)
	if VerifyWebhookSignature("secret123", tampered, sig) {
		t.Fatalf("expected tampered body to fail verification")
	}
}
