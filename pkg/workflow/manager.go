package workflow

import (
	"context"
	"log/slog"
	"sync"
)

// Manager holds the current graph for long-running deployments and
// rebuilds it when the workflow document changes. One-shot filter
// invocations load their own graph and do not need a Manager.
type Manager struct {
	path     string
	logger   *slog.Logger
	observer Observer

	mu      sync.RWMutex
	current *Graph

	watcher *FileWatcher

	// OnReload, if set, is called after every successful rebuild.
	OnReload func(*Graph)
}

// NewManager loads the initial graph from path (bootstrapping the
// default document if necessary) and returns a manager serving it.
func NewManager(path string, logger *slog.Logger, observer Observer) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		path:     path,
		logger:   logger.With("component", "workflow.manager"),
		observer: observer,
	}
	m.mu.Lock()
	m.current = m.build()
	m.mu.Unlock()
	return m
}

// Graph returns the currently loaded graph.
func (m *Manager) Graph() *Graph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reload rebuilds the graph from the workflow document. Load failures
// degrade to the built-in default graph rather than keeping the
// manager without a graph.
func (m *Manager) Reload() error {
	g := m.build()

	m.mu.Lock()
	m.current = g
	m.mu.Unlock()

	m.logger.Info("workflow reloaded", "workflow", g.Name())
	if m.OnReload != nil {
		m.OnReload(g)
	}
	return nil
}

// Watch starts a file watcher that reloads the graph on changes. It
// blocks until the context is cancelled.
func (m *Manager) Watch(ctx context.Context) error {
	fw, err := NewFileWatcher(m.path, m.logger)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.watcher = fw
	m.mu.Unlock()

	return fw.Watch(ctx, m.Reload)
}

func (m *Manager) build() *Graph {
	g := LoadOrDefault(m.path, m.logger)
	if m.observer != nil {
		g.SetObserver(m.observer)
	}
	return g
}
