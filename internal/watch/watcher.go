package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/logfields"
	"git.home.luguber.info/inful/autopage/internal/pagestore"
)

// Watcher saves page source files in a directory whenever they change.
// Bursts of events for one file collapse into a single save after the
// debounce window, and a file whose content has not changed since its last
// save is skipped.
type Watcher struct {
	dir      string
	saver    Saver
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
	saved  map[string]string // path -> fingerprint of the last saved content
	closed bool
	wg     sync.WaitGroup

	saveMu    sync.Mutex
	ready     chan struct{}
	readyOnce sync.Once
}

// NewWatcher creates a watcher for dir. Call Run to start it.
func NewWatcher(dir string, saver Saver, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if saver == nil {
		return nil, errors.ValidationError("saver is required").Build()
	}
	if debounce <= 0 {
		return nil, errors.ValidationError("debounce must be > 0").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to resolve watch directory").WithContext("dir", dir).Build()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create file watcher").Build()
	}
	return &Watcher{
		dir:      abs,
		saver:    saver,
		debounce: debounce,
		logger:   logger,
		watcher:  fw,
		timers:   map[string]*time.Timer{},
		saved:    map[string]string{},
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once Run has registered the directory tree.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches dir and its subdirectories until ctx is done, then closes the
// underlying watcher and waits for in-flight saves.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.shutdown()

	if err := w.addTree(w.dir); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "Watching page sources", logfields.Path(w.dir))
	w.readyOnce.Do(func() { close(w.ready) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.ErrorContext(ctx, "File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.WarnContext(ctx, "Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
			}
			return
		}
	}
	if !IsSource(event.Name) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
		w.schedule(ctx, event.Name)
	}
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		if w.closed {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()

		if ctx.Err() == nil {
			w.save(ctx, path)
		}
	})
}

func (w *Watcher) save(ctx context.Context, path string) {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	req, err := LoadFile(path)
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to load page source", logfields.Path(path), logfields.Error(err))
		return
	}

	fp := pagestore.Fingerprint(req.Content)
	w.mu.Lock()
	unchanged := w.saved[path] == fp
	w.mu.Unlock()
	if unchanged {
		return
	}

	res, err := w.saver.Save(ctx, req)
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to save page source", logfields.Path(path), logfields.Error(err))
		return
	}
	w.mu.Lock()
	w.saved[path] = fp
	w.mu.Unlock()
	w.logger.InfoContext(ctx, "Saved page from source file",
		logfields.Path(path),
		logfields.Page(res.Title.PrefixedText()),
		logfields.RevisionID(res.Revision.ID),
		slog.Int("auto_created", len(res.AutoCreated)))
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.WrapError(err, errors.CategoryRuntime, "failed to watch directory").WithContext("dir", path).Build()
		}
		return nil
	})
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	w.closed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	if err := w.watcher.Close(); err != nil {
		w.logger.Error("Error closing file watcher", logfields.Error(err))
	}
	w.wg.Wait()
}
