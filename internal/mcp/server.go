package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mamaar/nsadjust/internal/config"
	"github.com/mamaar/nsadjust/pkg/adjust"
	"github.com/mamaar/nsadjust/pkg/semantic"
	"github.com/mamaar/nsadjust/pkg/watch"
)

// MCPServer holds the shared state for the MCP tool handlers: a loaded
// workspace, its configuration, and a filesystem watcher that keeps the
// workspace index in sync with edits made outside the server.
type MCPServer struct {
	loadMu sync.Mutex // serializes LoadWorkspace and Close

	mu        sync.RWMutex
	workspace *adjust.Workspace
	config    *config.Config
	watcher   *watch.Watcher
	updater   *watch.Updater
	cancel    context.CancelFunc // stops the watcher
	done      chan struct{}
	logger    *slog.Logger
}

// NewMCPServer creates a new MCPServer with the given logger.
func NewMCPServer(logger *slog.Logger) *MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MCPServer{logger: logger}
}

// LoadWorkspace loads (or reloads) the workspace at path and starts a
// background watcher. configPath may be empty for <path>/.nsadjust.toml.
func (s *MCPServer) LoadWorkspace(ctx context.Context, path, configPath string) (*adjust.Workspace, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.stopWatcher()

	cfg, err := config.Load(path, configPath)
	if err != nil {
		return nil, err
	}

	s.logger.Info("loading workspace", "path", path)
	ws, err := adjust.OpenWorkspace(ctx, path, cfg.WorkspaceOptions(s.logger))
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}

	s.mu.Lock()
	s.workspace = ws
	s.config = cfg
	s.mu.Unlock()

	w, err := watch.NewWatcher(ws.Root, cfg.WatchExtensions(), cfg.WatchDebounce(), s.logger)
	if err != nil {
		s.logger.Warn("watcher unavailable, workspace will not auto-update", "err", err)
		return ws, nil
	}
	u := watch.NewUpdater(&syncedIndex{mu: &s.mu, index: ws.Index}, s.logger)

	watchCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := watch.Follow(watchCtx, w, u); err != nil {
			s.logger.Error("watcher error", "err", err)
		}
	}()

	s.mu.Lock()
	s.watcher, s.updater, s.cancel, s.done = w, u, cancel, done
	s.mu.Unlock()
	return ws, nil
}

// stopWatcher stops a running watcher and waits for it. The state lock is
// not held while waiting since the updater takes it for every batch.
func (s *MCPServer) stopWatcher() {
	s.mu.Lock()
	cancel, done, w := s.cancel, s.done, s.watcher
	s.cancel, s.done, s.watcher, s.updater = nil, nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if w != nil {
		_ = w.Close()
	}
}

// GetWorkspace returns the loaded workspace and its configuration, or an
// error if none is loaded. Callers hold the state lock.
func (s *MCPServer) GetWorkspace() (*adjust.Workspace, *config.Config, error) {
	if s.workspace == nil {
		return nil, nil, fmt.Errorf("no workspace loaded, call load_workspace first")
	}
	return s.workspace, s.config, nil
}

// WatchedEvents returns how many file events the watcher applied.
func (s *MCPServer) WatchedEvents() int {
	if s.updater == nil {
		return 0
	}
	return s.updater.Handled()
}

// Lock acquires the write lock for tools that edit the workspace.
func (s *MCPServer) Lock() { s.mu.Lock() }

// Unlock releases the write lock.
func (s *MCPServer) Unlock() { s.mu.Unlock() }

// RLock acquires a read lock on the server state.
func (s *MCPServer) RLock() { s.mu.RLock() }

// RUnlock releases the read lock.
func (s *MCPServer) RUnlock() { s.mu.RUnlock() }

// Close stops the watcher and releases resources.
func (s *MCPServer) Close() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.stopWatcher()
}

// syncedIndex applies watcher updates under the server write lock so they
// never interleave with a running tool.
type syncedIndex struct {
	mu    *sync.RWMutex
	index *semantic.Index
}

func (x *syncedIndex) Invalidate(path string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.index.Invalidate(path)
}

func (x *syncedIndex) Remove(path string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.index.Remove(path)
}
