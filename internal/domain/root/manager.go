package root

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/workerview/internal/infrastructure/monitoring"
)

var (
	ErrNotFound   = errors.New("root not found")
	ErrNoSnapshot = errors.New("root has not committed yet")
)

// Handle is the live side of a registered root
type Handle interface {
	ID() string
	Snapshot() []byte
	Commits() int
}

// Info describes a registered root
type Info struct {
	ID         string    `json:"id"`
	App        string    `json:"app"`
	Transport  string    `json:"transport"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	Commits    int       `json:"commits"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stats summarises the registry
type Stats struct {
	Active  int `json:"active"`
	Started int `json:"started"`
	Commits int `json:"commits"`
}

type entry struct {
	handle Handle
	info   Info
}

// Manager tracks live roots
type Manager struct {
	mu      sync.RWMutex
	roots   map[string]*entry // Protected by mu
	started int               // Protected by mu
	metrics *monitoring.Metrics
}

// NewManager creates an empty registry
func NewManager() *Manager {
	return &Manager{roots: make(map[string]*entry)}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Register adds a live root
func (m *Manager) Register(h Handle, app, transport, remoteAddr string) Info {
	info := Info{
		ID:         h.ID(),
		App:        app,
		Transport:  transport,
		RemoteAddr: remoteAddr,
		CreatedAt:  time.Now(),
	}

	m.mu.Lock()
	m.roots[info.ID] = &entry{handle: h, info: info}
	m.started++
	active := len(m.roots)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.IncRootsTotal()
		m.metrics.SetRootsActive(active)
	}
	return info
}

// Remove drops a root. It reports whether the root was registered.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	_, ok := m.roots[id]
	delete(m.roots, id)
	active := len(m.roots)
	m.mu.Unlock()

	if ok && m.metrics != nil {
		m.metrics.SetRootsActive(active)
	}
	return ok
}

// Get returns the handle of a root
func (m *Manager) Get(id string) (Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.roots[id]
	if !ok {
		return nil, false
	}
	return e.handle, true
}

// Info returns the description of a root with a fresh commit count
func (m *Manager) Info(id string) (Info, bool) {
	m.mu.RLock()
	e, ok := m.roots[id]
	m.mu.RUnlock()
	if !ok {
		return Info{}, false
	}
	info := e.info
	info.Commits = e.handle.Commits()
	return info, true
}

// List returns every root, oldest first
func (m *Manager) List() []Info {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.roots))
	for _, e := range m.roots {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	out := make([]Info, len(entries))
	for i, e := range entries {
		out[i] = e.info
		out[i].Commits = e.handle.Commits()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Snapshot returns the last encoded snapshot of a root
func (m *Manager) Snapshot(id string) ([]byte, error) {
	h, ok := m.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	data := h.Snapshot()
	if data == nil {
		return nil, ErrNoSnapshot
	}
	return data, nil
}

// Stats returns manager statistics
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{Active: len(m.roots), Started: m.started}
	for _, e := range m.roots {
		stats.Commits += e.handle.Commits()
	}
	return stats
}
