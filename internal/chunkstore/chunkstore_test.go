package chunkstore

import "testing"

func TestVectorLiteralFormatsAsPgvectorInput(t *testing.T) {
	got := vectorLiteral([]float32{0.5, -1, 2})
	want := "[0.5,-1,2]"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestVectorLiteralEmpty(t *testing.T) {
	if got := vectorLiteral(nil); got != "[]" {
		t.Fatalf("expected empty vector literal, got %q", got)
	}
}
