package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mittwald/mittcheck/pkg/check"
	"github.com/mittwald/mittcheck/pkg/notify"
	"github.com/mittwald/mittcheck/pkg/sink"
	"github.com/mittwald/mittcheck/pkg/value"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultTimeout  = 20 * time.Second
)

// Cycle is the outcome of one pass over all checks.
type Cycle struct {
	ID        string
	Started   time.Time
	Duration  time.Duration
	Snapshots map[string]value.Snapshot
	Events    []notify.Event
}

// Scheduler queries all checks of a Manager in fixed intervals, stores the
// snapshots and emits an event for every check whose snapshot changed.
type Scheduler struct {
	manager  *check.Manager
	contexts map[string]value.Snapshot
	sink     sink.Sink
	notifier notify.Notifier
	onCycle  func(Cycle)
	ignored  map[string]struct{}
	interval time.Duration
	timeout  time.Duration

	mu       sync.Mutex
	previous map[string]value.Snapshot
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.interval = d
		}
	}
}

// WithTimeout bounds a single cycle.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithSink(k sink.Sink) Option {
	return func(s *Scheduler) {
		s.sink = k
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Scheduler) {
		s.notifier = n
	}
}

// WithCycleHook registers a function called after every cycle.
func WithCycleHook(fn func(Cycle)) Option {
	return func(s *Scheduler) {
		s.onCycle = fn
	}
}

// WithIgnoredKeys excludes keys from change detection at any depth, e.g.
// latencies that differ on every run.
func WithIgnoredKeys(keys ...string) Option {
	return func(s *Scheduler) {
		for _, k := range keys {
			s.ignored[k] = struct{}{}
		}
	}
}

func New(m *check.Manager, contexts map[string]value.Snapshot, opts ...Option) *Scheduler {
	s := &Scheduler{
		manager:  m,
		contexts: contexts,
		ignored:  make(map[string]struct{}),
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		previous: make(map[string]value.Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run does an immediate pass and then one pass per interval until ctx is
// cancelled. An interval of zero runs a single pass.
func (s *Scheduler) Run(ctx context.Context) error {
	s.RunOnce(ctx)
	if s.interval == 0 {
		log.WithField("kind", "scheduler").Info("interval is zero, not rescheduling")
		return nil
	}

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			log.WithField("kind", "scheduler").Info("scheduler stopped")
			return ctx.Err()
		case <-t.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce queries every check once. Sink and notifier failures are logged
// and do not abort the cycle.
func (s *Scheduler) RunOnce(ctx context.Context) Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Cycle{ID: uuid.NewString(), Started: time.Now()}
	l := log.WithFields(log.Fields{"kind": "scheduler", "cycle": c.ID})

	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	c.Snapshots = s.manager.QueryAll(qctx, s.contexts)
	cancel()
	c.Duration = time.Since(c.Started)

	records := make([]sink.Record, 0, len(c.Snapshots))
	for _, name := range s.manager.Names() {
		snap, ok := c.Snapshots[name]
		if !ok {
			continue
		}
		records = append(records, sink.NewRecord(name, snap, c.Started))

		if ev, ok := s.detect(c, name, snap); ok {
			c.Events = append(c.Events, ev)
		}
		s.previous[name] = snap
	}

	if s.sink != nil {
		if err := s.sink.Store(ctx, records...); err != nil {
			l.WithError(err).Error("could not store snapshots")
		}
	}

	if s.notifier != nil {
		for _, ev := range c.Events {
			if err := s.notifier.Notify(ctx, ev); err != nil {
				l.WithError(err).WithField("check", ev.Check).Warn("could not deliver change event")
			}
		}
	}

	l.WithFields(log.Fields{"checks": len(c.Snapshots), "changes": len(c.Events), "duration": c.Duration}).Info("cycle finished")

	if s.onCycle != nil {
		s.onCycle(c)
	}
	return c
}

// detect compares snap with the previous snapshot of name. The first
// snapshot of a check only yields an event if it is failing.
func (s *Scheduler) detect(c Cycle, name string, snap value.Snapshot) (notify.Event, bool) {
	prev, seen := s.previous[name]
	if !seen {
		prev = value.EmptySnapshot()
	}

	changes := s.filter(value.Diff(prev, snap))
	if len(changes) == 0 || (!seen && !snap.Failing()) {
		return notify.Event{}, false
	}

	return notify.Event{
		Cycle:    c.ID,
		Check:    name,
		At:       c.Started,
		Changes:  changes,
		Snapshot: snap,
		Previous: prev,
	}, true
}

func (s *Scheduler) filter(changes []value.Change) []value.Change {
	if len(s.ignored) == 0 {
		return changes
	}
	out := changes[:0]
	for _, ch := range changes {
		key := ch.Path
		if i := strings.LastIndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		if _, skip := s.ignored[key]; !skip {
			out = append(out, ch)
		}
	}
	return out
}

// Forget drops the remembered snapshot of a deregistered check.
func (s *Scheduler) Forget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.previous, name)
}
