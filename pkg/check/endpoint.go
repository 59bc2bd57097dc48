package check

import (
	"context"
	"fmt"
	"sync"

	"github.com/mittwald/mittcheck/pkg/value"
	log "github.com/sirupsen/logrus"
)

var _ Queryable = &Endpoint{}

type child struct {
	name string
	q    Queryable
}

// Endpoint aggregates named child checks. Its snapshot maps every child name
// to the child's snapshot.
type Endpoint struct {
	state
	name     string
	workers  int
	children []child
	index    map[string]struct{}
}

func NewEndpoint(name string, workers int) *Endpoint {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Endpoint{
		name:    name,
		workers: workers,
		index:   make(map[string]struct{}),
	}
}

// Add appends a child. Children must be added before the endpoint is
// queried for the first time.
func (e *Endpoint) Add(name string, q Queryable) error {
	if name == "" {
		return fmt.Errorf("endpoint %q: child name must not be empty", e.name)
	}
	if q == nil {
		return fmt.Errorf("endpoint %q: child %q is nil", e.name, name)
	}
	if _, ok := e.index[name]; ok {
		return fmt.Errorf("endpoint %q: %w: %s", e.name, ErrDuplicateName, name)
	}
	e.index[name] = struct{}{}
	e.children = append(e.children, child{name: name, q: q})
	return nil
}

func (e *Endpoint) Children() []string {
	names := make([]string, len(e.children))
	for i, c := range e.children {
		names[i] = c.name
	}
	return names
}

// Query invokes every child with info and merges their snapshots. A failing
// or panicking child is reported under its own key and never fails the
// endpoint as a whole.
func (e *Endpoint) Query(ctx context.Context, info value.Snapshot) value.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	results := make([]value.Snapshot, len(e.children))
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup

	for i := range e.children {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = safeQuery(ctx, e.children[i].q, info)
		}(i)
	}
	wg.Wait()

	merged := make(map[string]value.Value, len(e.children))
	failed := 0
	for i, c := range e.children {
		if _, isErr := results[i].Error(); isErr {
			failed++
		}
		merged[c.name] = results[i].Value()
	}

	snap := value.NewSnapshot(merged)
	e.store(snap)

	log.WithFields(log.Fields{"kind": "endpoint", "name": e.name, "children": len(e.children), "failed": failed}).Debug("endpoint queried")
	return snap
}
