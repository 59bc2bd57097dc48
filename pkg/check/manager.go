package check

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mittwald/mittcheck/pkg/value"
	log "github.com/sirupsen/logrus"
)

const DefaultWorkers = 4

var ErrDuplicateName = errors.New("duplicate check name")

// Observer is notified after each query dispatched by QueryAll.
type Observer func(name string, snap value.Snapshot, duration time.Duration)

type entry struct {
	name string
	q    Queryable
}

// Manager is the ordered registry of all checks of a process.
type Manager struct {
	mu       sync.RWMutex
	entries  []entry
	index    map[string]int
	workers  int
	observer Observer
}

type ManagerOption func(*Manager)

func WithWorkers(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

func WithObserver(o Observer) ManagerOption {
	return func(m *Manager) {
		m.observer = o
	}
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		index:   make(map[string]int),
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Register(name string, q Queryable) error {
	if name == "" {
		return errors.New("check name must not be empty")
	}
	if q == nil {
		return fmt.Errorf("check %q is nil", name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	m.index[name] = len(m.entries)
	m.entries = append(m.entries, entry{name: name, q: q})

	log.WithFields(log.Fields{"kind": "manager", "name": name}).Debug("registered check")
	return nil
}

// Deregister removes a check and reports whether it was registered.
func (m *Manager) Deregister(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[name]
	if !ok {
		return false
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, name)
	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].name] = j
	}

	log.WithFields(log.Fields{"kind": "manager", "name": name}).Debug("deregistered check")
	return true
}

func (m *Manager) Get(name string) (Queryable, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.entries[i].q, true
}

// Names returns the registered names in registration order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.entries))
	for i, e := range m.entries {
		names[i] = e.name
	}
	return names
}

func (m *Manager) GetSnapshot(name string) (value.Snapshot, bool) {
	q, ok := m.Get(name)
	if !ok {
		return value.Snapshot{}, false
	}
	return q.LastInfo(), true
}

// Snapshots returns the last snapshot of every check.
func (m *Manager) Snapshots() map[string]value.Snapshot {
	m.mu.RLock()
	entries := append([]entry(nil), m.entries...)
	m.mu.RUnlock()

	out := make(map[string]value.Snapshot, len(entries))
	for _, e := range entries {
		out[e.name] = e.q.LastInfo()
	}
	return out
}

// QueryAll queries every registered check on a bounded worker pool.
// contexts holds the info passed to each check by name; checks without an
// entry receive an empty snapshot.
func (m *Manager) QueryAll(ctx context.Context, contexts map[string]value.Snapshot) map[string]value.Snapshot {
	m.mu.RLock()
	entries := append([]entry(nil), m.entries...)
	m.mu.RUnlock()

	results := make([]value.Snapshot, len(entries))
	sem := make(chan struct{}, m.workers)
	var wg sync.WaitGroup

	for i := range entries {
		info, ok := contexts[entries[i].name]
		if !ok {
			info = value.EmptySnapshot()
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, info value.Snapshot) {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			results[i] = safeQuery(ctx, entries[i].q, info)
			if m.observer != nil {
				m.observer(entries[i].name, results[i], time.Since(start))
			}
		}(i, info)
	}
	wg.Wait()

	out := make(map[string]value.Snapshot, len(entries))
	for i, e := range entries {
		out[e.name] = results[i]
	}
	return out
}
