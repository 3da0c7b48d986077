package screen

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	ws       *Workspace
	lastSeen time.Time
}

// Manager owns the workspaces of all logged-in sessions and drops the ones
// left idle.
type Manager struct {
	mu      sync.Mutex
	deps    *Deps
	idle    time.Duration
	entries map[string]*entry
}

// NewManager creates a Manager. Workspaces untouched for idle are removed by
// Sweep; zero disables expiry.
func NewManager(deps Deps, idle time.Duration) *Manager {
	deps.defaults()
	return &Manager{deps: &deps, idle: idle, entries: make(map[string]*entry)}
}

// Open returns the workspace of sessionID, creating it when absent. A
// session that outlived its workspace starts again on an empty screen.
func (m *Manager) Open(ctx context.Context, sessionID, userID string) *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.deps.Now()
	if e, ok := m.entries[sessionID]; ok && e.ws.userID == userID {
		e.lastSeen = now
		return e.ws
	}
	ws := newWorkspace(ctx, m.deps, sessionID, userID)
	m.entries[sessionID] = &entry{ws: ws, lastSeen: now}
	m.deps.Recorder.SetActiveWorkspaces(len(m.entries))
	return ws
}

// Lookup returns the workspace of sessionID without creating one.
func (m *Manager) Lookup(sessionID string) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[sessionID]
	if !ok {
		return nil, false
	}
	e.lastSeen = m.deps.Now()
	return e.ws, true
}

// Drop removes the workspace of sessionID.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	m.deps.Recorder.SetActiveWorkspaces(len(m.entries))
}

// Len returns the number of live workspaces.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep removes idle workspaces and returns how many were removed.
func (m *Manager) Sweep() int {
	if m.idle <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.deps.Now().Add(-m.idle)
	n := 0
	for id, e := range m.entries {
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
	}
	if n > 0 {
		m.deps.Recorder.SetActiveWorkspaces(len(m.entries))
		m.deps.Logger.Debug("idle workspaces swept", zap.Int("removed", n))
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep()
		}
	}
}
