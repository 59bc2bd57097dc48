package notify

import (
	"context"
	"time"

	"github.com/mittwald/mittcheck/pkg/value"
)

// Event describes how the snapshot of one check changed between two cycles.
type Event struct {
	Cycle    string         `json:"cycle"`
	Check    string         `json:"check"`
	At       time.Time      `json:"at"`
	Changes  []value.Change `json:"changes"`
	Snapshot value.Snapshot `json:"snapshot"`
	Previous value.Snapshot `json:"previous"`
}

// Failing reports whether the new snapshot carries an error at any level.
func (e Event) Failing() bool {
	return e.Snapshot.Failing()
}

// Recovered reports whether the previous snapshot failed and the new one
// does not.
func (e Event) Recovered() bool {
	return e.Previous.Failing() && !e.Failing()
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Multi fans an event out to every notifier. All notifiers are tried; the
// first error is returned.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Func adapts a plain function to a Notifier.
type Func func(ctx context.Context, ev Event) error

func (f Func) Notify(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
