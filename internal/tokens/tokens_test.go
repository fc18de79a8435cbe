package tokens

import "testing"

func TestCountEmpty(t *testing.T) {
	if got := Count(""); got != 0 {
		t.Fatalf("expected 0 tokens for empty string, got %d", got)
	}
}

func TestCountDeterministic(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog."
	a := Count(text)
	b := Count(text)
	if a != b {
		t.Fatalf("token count not deterministic: %d vs %d", a, b)
	}
	if a == 0 {
		t.Fatalf("expected non-zero token count")
	}
}

func TestCountMonotonicWithLength(t *testing.T) {
	short := Count("hello")
	long := Count("hello hello hello hello hello")
	if long <= short {
		t.Fatalf("expected longer text to have more tokens: short=%d long=%d", short, long)
	}
}

func TestCountAll(t *testing.T) {
	sum := CountAll("hello", "world")
	individual := Count("hello") + Count("world")
	if sum != individual {
		t.Fatalf("CountAll mismatch: %d vs %d", sum, individual)
	}
}
