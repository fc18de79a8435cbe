package indexjob

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeEnqueuer struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, projectID string, mode Mode) (*Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, projectID)
	return &Job{ID: "job1", ProjectID: projectID, Mode: mode}, nil
}

func (f *fakeEnqueuer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestWatcherEnqueuesOnFileWrite(t *testing.T) {
	dir := t.TempDir()
	enqueuer := &fakeEnqueuer{}
	w, err := NewWatcher(enqueuer, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Watch(dir, "proj1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "doc.md"), []byte("# hello"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if enqueuer.callCount() > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if enqueuer.callCount() == 0 {
		t.Fatalf("expected at least one enqueue call")
	}
}

func TestWatcherIgnoresUnwatchedDirectory(t *testing.T) {
	watched := t.TempDir()
	other := t.TempDir()
	enqueuer := &fakeEnqueuer{}
	w, err := NewWatcher(enqueuer, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Watch(watched, "proj1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := w.projectForPath(filepath.Join(other, "doc.md")); got != "" {
		t.Fatalf("expected empty project for unwatched path, got %q", got)
	}
	if got := w.projectForPath(filepath.Join(watched, "doc.md")); got != "proj1" {
		t.Fatalf("expected proj1, got %q", got)
	}
}
