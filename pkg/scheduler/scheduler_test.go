package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mittwald/mittcheck/pkg/check"
	"github.com/mittwald/mittcheck/pkg/notify"
	"github.com/mittwald/mittcheck/pkg/sink"
	"github.com/mittwald/mittcheck/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type switchProbe struct {
	mu  sync.Mutex
	err error
}

func (p *switchProbe) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *switchProbe) Exec(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Notify(ctx context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func newManager(t *testing.T, probes map[string]*switchProbe) *check.Manager {
	m := check.NewManager()
	for name, p := range probes {
		require.NoError(t, m.Register(name, check.NewNativeCheck(name, p)))
	}
	return m
}

func TestRunOnceDetectsChanges(t *testing.T) {
	probe := &switchProbe{}
	store := sink.NewMemory(10)
	rec := &recorder{}

	s := New(newManager(t, map[string]*switchProbe{"cache": probe}), nil,
		WithSink(store),
		WithNotifier(rec),
		WithIgnoredKeys("latency_ms"),
	)
	ctx := context.Background()

	first := s.RunOnce(ctx)
	assert.NotEmpty(t, first.ID)
	assert.Empty(t, first.Events, "healthy first snapshot")

	probe.set(errors.New("connection refused"))
	second := s.RunOnce(ctx)
	require.Len(t, second.Events, 1)
	ev := second.Events[0]
	assert.Equal(t, "cache", ev.Check)
	assert.Equal(t, second.ID, ev.Cycle)
	assert.True(t, ev.Failing())

	var paths []string
	for _, ch := range ev.Changes {
		paths = append(paths, ch.Path)
	}
	assert.Equal(t, []string{"error", "message", "ok"}, paths)

	third := s.RunOnce(ctx)
	assert.Empty(t, third.Events, "unchanged failure")

	probe.set(nil)
	fourth := s.RunOnce(ctx)
	require.Len(t, fourth.Events, 1)
	assert.True(t, fourth.Events[0].Recovered())

	assert.Len(t, rec.events, 2)

	hist, err := store.History(ctx, "cache", 0)
	require.NoError(t, err)
	assert.Len(t, hist, 4)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRunOnceFailingFirstSnapshot(t *testing.T) {
	probe := &switchProbe{err: errors.New("down")}
	rec := &recorder{}
	s := New(newManager(t, map[string]*switchProbe{"db": probe}), nil, WithNotifier(rec))

	c := s.RunOnce(context.Background())
	require.Len(t, c.Events, 1)
	assert.True(t, c.Events[0].Previous.Equal(value.EmptySnapshot()))
}

func TestLatencyChangesWithoutIgnoredKeys(t *testing.T) {
	probe := &switchProbe{}
	s := New(newManager(t, map[string]*switchProbe{"web": probe}), nil)

	s.RunOnce(context.Background())
	time.Sleep(2 * time.Millisecond)
	c := s.RunOnce(context.Background())

	for _, ev := range c.Events {
		for _, ch := range ev.Changes {
			assert.Equal(t, "latency_ms", ch.Path)
		}
	}
}

func TestRunOnceFailingNotifierDoesNotAbort(t *testing.T) {
	probe := &switchProbe{err: errors.New("down")}
	store := sink.NewMemory(10)
	s := New(newManager(t, map[string]*switchProbe{"db": probe}), nil,
		WithSink(store),
		WithNotifier(notify.Func(func(ctx context.Context, ev notify.Event) error {
			return errors.New("unreachable")
		})),
	)

	c := s.RunOnce(context.Background())
	assert.Len(t, c.Events, 1)

	hist, err := store.History(context.Background(), "db", 0)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestRunPassesContexts(t *testing.T) {
	m := check.NewManager()
	var seen atomic.Value
	require.NoError(t, m.Register("ctx", &infoCheck{fn: func(info value.Snapshot) { seen.Store(info) }}))

	info := value.NewSnapshot(map[string]value.Value{"ip": value.String("10.0.0.1")})
	s := New(m, map[string]value.Snapshot{"ctx": info}, WithInterval(0))
	require.NoError(t, s.Run(context.Background()))

	got, ok := seen.Load().(value.Snapshot)
	require.True(t, ok)
	assert.True(t, got.Equal(info))
}

func TestRunStopsOnCancel(t *testing.T) {
	probe := &switchProbe{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cycles int32
	s := New(newManager(t, map[string]*switchProbe{"web": probe}), nil,
		WithInterval(5*time.Millisecond),
		WithCycleHook(func(Cycle) {
			if atomic.AddInt32(&cycles, 1) == 3 {
				cancel()
			}
		}),
	)

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&cycles), int32(3))
}

func TestForget(t *testing.T) {
	probe := &switchProbe{err: errors.New("down")}
	s := New(newManager(t, map[string]*switchProbe{"db": probe}), nil)

	require.Len(t, s.RunOnce(context.Background()).Events, 1)
	assert.Empty(t, s.RunOnce(context.Background()).Events)

	s.Forget("db")
	assert.Len(t, s.RunOnce(context.Background()).Events, 1)
}

type infoCheck struct {
	last value.Snapshot
	fn   func(value.Snapshot)
}

func (c *infoCheck) Query(ctx context.Context, info value.Snapshot) value.Snapshot {
	c.fn(info)
	c.last = info
	return info
}

func (c *infoCheck) LastInfo() value.Snapshot {
	return c.last
}
