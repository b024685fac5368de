package assets

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/topdown/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before a change is
// reported.
const DefaultDebounce = 100 * time.Millisecond

// ErrNotWatchable is returned when the manager does not read from disk.
var ErrNotWatchable = errors.New("asset manager has no directory to watch")

// Watcher reports changed files under a directory tree. Events carries
// slash-separated paths relative to the root, once per burst of writes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	accept   func(string) bool

	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher watches root and its subdirectories. accept filters the
// relative paths worth reporting; nil accepts everything.
func NewWatcher(root string, debounce time.Duration, accept func(string) bool) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if accept == nil {
		accept = func(string) bool { return true }
	}
	watcher := &Watcher{
		watcher:  w,
		root:     root,
		debounce: debounce,
		accept:   accept,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher. Events and Errors are closed once it has.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Errors)
	defer close(w.Events)

	pending := make(map[string]time.Time)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
				if err := w.watcher.Add(event.Name); err != nil {
					w.report(err)
				}
				continue
			}
			rel, ok := w.relative(event.Name)
			if !ok || !w.accept(rel) {
				continue
			}
			pending[rel] = time.Now().Add(w.debounce)
			timer.Reset(w.debounce)

		case <-timer.C:
			now := time.Now()
			var due []string
			var next time.Duration
			for p, at := range pending {
				if left := at.Sub(now); left > 0 {
					if next == 0 || left < next {
						next = left
					}
					continue
				}
				due = append(due, p)
			}
			sort.Strings(due)
			for _, p := range due {
				delete(pending, p)
				select {
				case w.Events <- p:
				case <-w.closeCh:
					return
				}
			}
			if next > 0 {
				timer.Reset(next)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)

		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) report(err error) {
	select {
	case w.Errors <- err:
	default:
		logger.Named(logger.Assets).Warn("watcher error dropped", zap.Error(err))
	}
}

func (w *Watcher) relative(name string) (string, bool) {
	rel, err := filepath.Rel(w.root, name)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

// Watch starts a watcher over the manager's directory that reports files
// some loader can handle.
func (m *Manager) Watch(debounce time.Duration) (*Watcher, error) {
	if m.dir == "" {
		return nil, ErrNotWatchable
	}
	return NewWatcher(m.dir, debounce, m.Handles)
}

// Run reloads loaded assets as w reports changes, until ctx is done or w
// is closed. Files that are not loaded are ignored; failed reloads are
// logged and keep the previous version.
func (m *Manager) Run(ctx context.Context, w *Watcher) error {
	log := logger.Named(logger.Assets)
	events, errs := w.Events, w.Errors
	for events != nil || errs != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.mu.RLock()
			_, loaded := m.byPath[p]
			m.mu.RUnlock()
			if !loaded {
				continue
			}
			// Reload logs its own failures.
			_, _ = m.Reload(p)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
	return nil
}
