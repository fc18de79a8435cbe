package swarm

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestWrapValueScalar(t *testing.T) {
	wrapped, kind := wrapValue(42)
	if kind != "scalar" {
		t.Fatalf("expected scalar kind, got %q", kind)
	}
	m, ok := wrapped.(bson.M)
	if !ok {
		t.Fatalf("expected bson.M wrapper, got %T", wrapped)
	}
	if m["value"] != 42 {
		t.Fatalf("expected wrapped value 42, got %v", m["value"])
	}
}

func TestWrapValueString(t *testing.T) {
	_, kind := wrapValue("hello")
	if kind != "raw" {
		t.Fatalf("expected raw kind for string, got %q", kind)
	}
}

func TestWrapValueObjectPassesThrough(t *testing.T) {
	original := map[string]interface{}{"a": 1}
	wrapped, kind := wrapValue(original)
	if kind != "" {
		t.Fatalf("expected empty kind for object, got %q", kind)
	}
	if wrapped.(map[string]interface{})["a"] != 1 {
		t.Fatalf("expected object to pass through unchanged")
	}
}

func TestUnwrapEntryScalar(t *testing.T) {
	entry := &SharedStateEntry{Value: bson.M{"value": 42}, Wrapped: "scalar"}
	if unwrapEntry(entry) != 42 {
		t.Fatalf("expected unwrapped scalar 42, got %v", unwrapEntry(entry))
	}
}

func TestUnwrapEntryRaw(t *testing.T) {
	entry := &SharedStateEntry{Value: bson.M{"raw": "hi"}, Wrapped: "raw"}
	if unwrapEntry(entry) != "hi" {
		t.Fatalf("expected unwrapped string 'hi', got %v", unwrapEntry(entry))
	}
}

func TestUnwrapEntryPlainObjectUnchanged(t *testing.T) {
	original := map[string]interface{}{"a": 1}
	entry := &SharedStateEntry{Value: original, Wrapped: ""}
	result, ok := unwrapEntry(entry).(map[string]interface{})
	if !ok || result["a"] != 1 {
		t.Fatalf("expected plain object unchanged, got %v", unwrapEntry(entry))
	}
}
