package engine

import (
	"context"
	"errors"
	"testing"

	"rlmengine/internal/domain"
	"rlmengine/internal/index"
)

func TestAccessSatisfiesOrdering(t *testing.T) {
	cases := []struct {
		held, required domain.AccessLevel
		want           bool
	}{
		{domain.AccessNone, domain.AccessViewer, false},
		{domain.AccessViewer, domain.AccessViewer, true},
		{domain.AccessEditor, domain.AccessViewer, true},
		{domain.AccessViewer, domain.AccessEditor, false},
		{domain.AccessAdmin, domain.AccessAdmin, true},
	}
	for _, c := range cases {
		if got := accessSatisfies(c.held, c.required); got != c.want {
			t.Fatalf("accessSatisfies(%v, %v) = %v, want %v", c.held, c.required, got, c.want)
		}
	}
}

func TestHandlerContextIndexLazyLoadsOnce(t *testing.T) {
	calls := 0
	loader := func(ctx context.Context, projectID string) (*index.DocumentIndex, error) {
		calls++
		return &index.DocumentIndex{}, nil
	}
	hc := NewHandlerContext(context.Background(), loader)
	hc.ProjectID = "proj1"

	if _, err := hc.Index(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := hc.Index(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected loader called once, got %d", calls)
	}
}

func TestHandlerContextIndexPropagatesError(t *testing.T) {
	loader := func(ctx context.Context, projectID string) (*index.DocumentIndex, error) {
		return nil, errors.New("boom")
	}
	hc := NewHandlerContext(context.Background(), loader)
	if _, err := hc.Index(); err == nil {
		t.Fatalf("expected error from loader to propagate")
	}
}

func TestHandlerContextIndexNilLoaderReturnsNil(t *testing.T) {
	hc := NewHandlerContext(context.Background(), nil)
	idx, err := hc.Index()
	if err != nil || idx != nil {
		t.Fatalf("expected nil index and nil error with no loader configured")
	}
}
