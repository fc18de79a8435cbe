package indexjob

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceWindow coalesces a burst of writes to the same project's
// upload directory into a single enqueue.
const debounceWindow = 500 * time.Millisecond

// Enqueuer is the subset of Store the watcher needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, projectID string, mode Mode) (*Job, error)
}

// Watcher maps project upload directories to project IDs and enqueues an
// incremental reindex job whenever fsnotify reports a change under one,
// debounced so a multi-file upload produces one job, not one per file.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	enqueuer  Enqueuer
	logger    *zap.Logger

	mu          sync.Mutex
	dirProjects map[string]string // watched directory -> project ID

	debounceMu sync.Mutex
	timers     map[string]*time.Timer

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher builds a Watcher. A nil logger is replaced with a no-op
// logger.
func NewWatcher(enqueuer Enqueuer, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		fsWatcher:   fsw,
		enqueuer:    enqueuer,
		logger:      logger,
		dirProjects: make(map[string]string),
		timers:      make(map[string]*time.Timer),
	}, nil
}

// Watch registers dir as projectID's upload directory.
func (w *Watcher) Watch(dir, projectID string) error {
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}
	w.mu.Lock()
	w.dirProjects[dir] = projectID
	w.mu.Unlock()
	return nil
}

// Unwatch stops watching dir.
func (w *Watcher) Unwatch(dir string) {
	w.fsWatcher.Remove(dir)
	w.mu.Lock()
	delete(w.dirProjects, dir)
	w.mu.Unlock()
}

// Start begins processing fsnotify events until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				w.handleEvent(ctx, event)
			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("indexjob: watcher error", zap.Error(err))
			}
		}
	}()
}

// Stop halts event processing and closes the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	return w.fsWatcher.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	projectID := w.projectForPath(event.Name)
	if projectID == "" {
		return
	}

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if timer, exists := w.timers[projectID]; exists {
		timer.Stop()
	}
	w.timers[projectID] = time.AfterFunc(debounceWindow, func() {
		w.debounceMu.Lock()
		delete(w.timers, projectID)
		w.debounceMu.Unlock()

		if _, err := w.enqueuer.Enqueue(ctx, projectID, ModeIncremental); err != nil {
			w.logger.Error("indexjob: failed to enqueue from watch event",
				zap.String("project_id", projectID), zap.Error(err))
		}
	})
}

func (w *Watcher) projectForPath(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	dir := filepath.Dir(path)
	for watchedDir, projectID := range w.dirProjects {
		if dir == watchedDir || strings.HasPrefix(dir, watchedDir+string(filepath.Separator)) {
			return projectID
		}
	}
	return ""
}
