// Package security provides the hashing primitives used to store API
// keys and webhook signatures without ever persisting secrets in
// plaintext.
package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashAPIKey returns the hex-encoded SHA-256 digest of an API key, the
// form persisted in storage so a database leak never exposes usable
// credentials.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// VerifyAPIKey reports whether key hashes to storedHash, using a
// constant-time comparison on the digests.
func VerifyAPIKey(key, storedHash string) bool {
	computed := HashAPIKey(key)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// SignWebhookPayload returns the hex-encoded HMAC-SHA256 signature of
// body using secret. Webhook deliveries send it, prefixed with "sha256=",
// in the X-Snipara-Signature header so subscribers can verify authenticity.
func SignWebhookPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature reports whether signature is the valid
// HMAC-SHA256 signature of body under secret.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	expected := SignWebhookPayload(secret, body)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
