package check

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mittwald/mittcheck/pkg/value"
)

// Queryable is anything that can be asked for a fresh snapshot and that
// remembers the last one it produced.
type Queryable interface {
	// Query produces a new snapshot for info and stores it as last info.
	// It never fails; failures are reported as {"error": message}.
	Query(ctx context.Context, info value.Snapshot) value.Snapshot

	// LastInfo returns the last snapshot produced by Query, or an empty
	// snapshot if Query has not completed yet.
	LastInfo() value.Snapshot
}

// state serializes queries of one Queryable and publishes their results.
// Readers of last never take the mutex.
type state struct {
	mu   sync.Mutex
	last atomic.Pointer[value.Snapshot]
}

func (s *state) LastInfo() value.Snapshot {
	if p := s.last.Load(); p != nil {
		return *p
	}
	return value.EmptySnapshot()
}

func (s *state) store(snap value.Snapshot) {
	s.last.Store(&snap)
}

// safeQuery runs q.Query and turns a panic into an error snapshot.
func safeQuery(ctx context.Context, q Queryable, info value.Snapshot) (snap value.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			snap = value.ErrorSnapshot(fmt.Sprintf("panic: %v", r))
		}
	}()
	return q.Query(ctx, info)
}

type withDefaults struct {
	Queryable
	defaults value.Snapshot
}

// WithDefaults wraps q so that every query sees defaults merged below the
// runtime info.
func WithDefaults(q Queryable, defaults value.Snapshot) Queryable {
	if defaults.Len() == 0 {
		return q
	}
	return &withDefaults{Queryable: q, defaults: defaults}
}

func (w *withDefaults) Query(ctx context.Context, info value.Snapshot) value.Snapshot {
	return w.Queryable.Query(ctx, w.defaults.Merge(info))
}
