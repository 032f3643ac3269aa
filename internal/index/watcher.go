package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a path must stay quiet before it is processed.
const DefaultDebounce = 200 * time.Millisecond

// Watcher monitors the content tree for changes, re-indexes changed
// markdown files and calls onChange once a change has settled.
type Watcher struct {
	indexer  *Indexer // may be nil: only onChange fires
	watcher  *fsnotify.Watcher
	root     string
	logger   *log.Logger
	delay    time.Duration
	debounce map[string]*time.Timer
	mu       sync.Mutex
	onChange func(path string)
}

// NewWatcher watches the course tree at root. indexer may be nil, in which
// case changes are only reported to onChange.
func NewWatcher(indexer *Indexer, root string, logger *log.Logger, onChange func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	w := &Watcher{
		indexer:  indexer,
		watcher:  fw,
		root:     root,
		logger:   logger,
		delay:    DefaultDebounce,
		debounce: make(map[string]*time.Timer),
		onChange: onChange,
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// SetDebounce overrides DefaultDebounce.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	w.delay = d
	w.mu.Unlock()
}

// Start processes events until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch", "err", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}

	if event.Has(fsnotify.Create) {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("watch directory", "path", path, "err", err)
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.debounce, path)
		w.mu.Unlock()

		if w.indexer != nil && strings.HasSuffix(path, ".md") {
			var err error
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				err = w.indexer.RemoveFile(path)
			} else {
				err = w.indexer.IndexFile(path)
			}
			if err != nil {
				w.logger.Warn("reindex", "path", path, "err", err)
			}
		}

		w.logger.Debug("changed", "path", path, "op", event.Op.String())
		if w.onChange != nil {
			w.onChange(path)
		}
	})
}

// Stop stops the watcher and any pending work.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	for path, timer := range w.debounce {
		timer.Stop()
		delete(w.debounce, path)
	}
	w.mu.Unlock()
	return w.watcher.Close()
}
