package hotreload

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changes to configuration files. Files are watched through
// their parent directory so editors that save by rename are still seen.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	events  chan Event
	done    chan struct{}
	wg      sync.WaitGroup

	mu         sync.RWMutex
	files      map[string]struct{} // watched files
	dirs       map[string]struct{} // watched directories
	refs       map[string]int      // fsnotify directories and how many entries use them
	isWatching bool
	closed     bool
}

// Event represents a file system event
type Event struct {
	Path string
	Op   fsnotify.Op
}

// NewWatcher creates a new file watcher
func NewWatcher(logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		watcher: fsWatcher,
		logger:  logger,
		events:  make(chan Event, 100),
		done:    make(chan struct{}),
		files:   make(map[string]struct{}),
		dirs:    make(map[string]struct{}),
		refs:    make(map[string]int),
	}, nil
}

// Add watches a file or every file in a directory. The path must exist.
func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("failed to add path %s: %w", absPath, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	entries, dir := w.files, filepath.Dir(absPath)
	if info.IsDir() {
		entries, dir = w.dirs, absPath
	}
	if _, ok := entries[absPath]; ok {
		return nil
	}

	if w.refs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to add path %s: %w", dir, err)
		}
	}
	w.refs[dir]++
	entries[absPath] = struct{}{}

	w.logger.Debug("Added watch path", zap.String("path", absPath))
	return nil
}

// Remove stops watching a path previously passed to Add.
func (w *Watcher) Remove(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var dir string
	if _, ok := w.files[absPath]; ok {
		delete(w.files, absPath)
		dir = filepath.Dir(absPath)
	} else if _, ok := w.dirs[absPath]; ok {
		delete(w.dirs, absPath)
		dir = absPath
	} else {
		return fmt.Errorf("path %s is not watched", absPath)
	}

	w.refs[dir]--
	if w.refs[dir] > 0 {
		return nil
	}
	delete(w.refs, dir)
	if err := w.watcher.Remove(dir); err != nil {
		return fmt.Errorf("failed to remove path %s: %w", dir, err)
	}

	w.logger.Debug("Removed watch path", zap.String("path", absPath))
	return nil
}

// Paths returns the watched files and directories in sorted order.
func (w *Watcher) Paths() []string {
	w.mu.RLock()
	paths := make([]string, 0, len(w.files)+len(w.dirs))
	for f := range w.files {
		paths = append(paths, f)
	}
	for d := range w.dirs {
		paths = append(paths, d)
	}
	w.mu.RUnlock()

	sort.Strings(paths)
	return paths
}

// Events returns the channel for file system events. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching for file system events
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.isWatching || w.closed {
		w.mu.Unlock()
		return
	}
	w.isWatching = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.watch()
	w.logger.Info("File watcher started")
}

// Stop stops watching and releases the underlying watcher. A stopped
// watcher cannot be restarted.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	wasWatching := w.isWatching
	w.isWatching = false
	w.mu.Unlock()

	close(w.done)
	w.wg.Wait()
	close(w.events)
	if err := w.watcher.Close(); err != nil {
		w.logger.Error("Failed to close file watcher", zap.Error(err))
	}
	if wasWatching {
		w.logger.Info("File watcher stopped")
	}
}

func (w *Watcher) watch() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}

			w.logger.Debug("File system event", zap.String("path", event.Name), zap.String("operation", event.Op.String()))
			select {
			case w.events <- Event{Path: event.Name, Op: event.Op}:
			case <-w.done:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// relevant reports whether an event path is a watched file, or a regular
// file inside a watched directory.
func (w *Watcher) relevant(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if _, ok := w.files[path]; ok {
		return true
	}
	if w.shouldSkipEvent(path) {
		return false
	}
	_, ok := w.dirs[filepath.Dir(path)]
	return ok
}

// shouldSkipEvent filters editor swap files and hidden files.
func (w *Watcher) shouldSkipEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case base == "" || base == ".":
		return true
	case strings.HasPrefix(base, "."), strings.HasPrefix(base, "~"), strings.HasSuffix(base, "~"):
		return true
	}
	ext := filepath.Ext(base)
	return ext == ".tmp" || ext == ".swp"
}

// IsWatching returns whether the watcher is currently active
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isWatching
}
