// Package hotreload watches configuration files and reloads registered
// components when they change.
package hotreload

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager manages the entire hot reload system
type Manager struct {
	watcher     *Watcher
	coordinator *Coordinator
	logger      *zap.Logger

	mu      sync.Mutex
	started bool
}

// NewManager creates a new hot reload manager
func NewManager(logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("hotreload")

	watcher, err := NewWatcher(logger)
	if err != nil {
		return nil, err
	}

	return &Manager{
		watcher:     watcher,
		coordinator: NewCoordinator(watcher, logger),
		logger:      logger,
	}, nil
}

// AddWatch adds a file or directory to watch
func (m *Manager) AddWatch(path string) error {
	return m.watcher.Add(path)
}

// RemoveWatch removes a file or directory from watch
func (m *Manager) RemoveWatch(path string) error {
	return m.watcher.Remove(path)
}

// WatchedPaths returns every watched file and directory.
func (m *Manager) WatchedPaths() []string {
	return m.watcher.Paths()
}

// RegisterReloadable registers a reloadable component
func (m *Manager) RegisterReloadable(reloadable Reloadable) error {
	return m.coordinator.Register(reloadable)
}

// Start starts the hot reload system
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}
	if err := m.coordinator.Start(); err != nil {
		return err
	}

	m.started = true
	m.logger.Info("Hot reload system started")
	return nil
}

// Stop stops the hot reload system and releases the watcher. A stopped
// manager cannot be restarted.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		m.watcher.Stop()
		return
	}

	m.coordinator.Stop()
	m.started = false
	m.logger.Info("Hot reload system stopped")
}

// Reload reloads every registered component now, as on SIGHUP.
func (m *Manager) Reload(ctx context.Context) error {
	return m.coordinator.ReloadNow(ctx)
}

// SetDebounceTime sets the debounce time for reload events
func (m *Manager) SetDebounceTime(d time.Duration) {
	m.coordinator.SetDebounceTime(d)
}

// IsRunning returns whether the hot reload system is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Shutdown stops the system. It exists so the manager can be closed
// alongside servers that take a context.
func (m *Manager) Shutdown(_ context.Context) error {
	m.Stop()
	return nil
}
