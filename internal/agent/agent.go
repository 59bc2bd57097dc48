package agent

import (
	"context"
	"time"

	"github.com/mittwald/mittcheck/internal/config"
	"github.com/mittwald/mittcheck/pkg/bridge"
	"github.com/mittwald/mittcheck/pkg/check"
	"github.com/mittwald/mittcheck/pkg/metrics"
	"github.com/mittwald/mittcheck/pkg/notify"
	"github.com/mittwald/mittcheck/pkg/scheduler"
	"github.com/mittwald/mittcheck/pkg/server"
	"github.com/mittwald/mittcheck/pkg/sink"
	"github.com/mittwald/mittcheck/pkg/value"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Agent is the fully wired runtime built from a configuration.
type Agent struct {
	Config    *config.Agent
	Bridge    *bridge.Bridge
	Manager   *check.Manager
	Contexts  map[string]value.Snapshot
	Metrics   *metrics.Metrics
	Sink      sink.Sink
	Notifiers notify.Multi
	Scheduler *scheduler.Scheduler
	Server    *server.Server

	// Rejected holds the scripts that failed to load, keyed by qualified
	// name (endpoint children as "endpoint.child").
	Rejected map[string]error

	closers []func() error
}

// Build wires the agent. Scripts that do not compile or validate are
// logged and left out; every other error aborts the build.
func Build(ctx context.Context, cfg *config.Agent) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Agent{
		Config:   cfg,
		Contexts: make(map[string]value.Snapshot),
		Metrics:  metrics.New(),
		Rejected: make(map[string]error),
	}

	var err error
	if a.Bridge, err = BuildBridge(cfg); err != nil {
		return nil, err
	}

	var managerOpts []check.ManagerOption
	managerOpts = append(managerOpts, check.WithObserver(a.Metrics.Observe))
	if cfg.Scheduler != nil {
		managerOpts = append(managerOpts, check.WithWorkers(cfg.Scheduler.Workers))
	}
	a.Manager = check.NewManager(managerOpts...)

	if err := a.buildChecks(); err != nil {
		return nil, err
	}
	a.Metrics.RejectedScripts.Set(float64(len(a.Rejected)))

	if err := a.buildSink(ctx); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.Sink.Close)

	if err := a.buildNotifiers(); err != nil {
		_ = a.Close()
		return nil, err
	}

	listen := ""
	if cfg.Server != nil {
		listen = cfg.Server.Listen
	}
	a.Server = server.New(listen, a.Manager,
		server.WithHistory(a.Sink),
		server.WithGatherer(a.Metrics.Gatherer()),
	)
	a.Notifiers = append(a.Notifiers, a.Server.Hub())

	if a.Scheduler, err = a.buildScheduler(); err != nil {
		_ = a.Close()
		return nil, err
	}

	log.WithFields(log.Fields{"checks": len(a.Manager.Names()), "rejected": len(a.Rejected)}).Info("agent built")
	return a, nil
}

func (a *Agent) buildScheduler() (*scheduler.Scheduler, error) {
	var intervalStr, timeoutStr string
	if a.Config.Scheduler != nil {
		intervalStr, timeoutStr = a.Config.Scheduler.Interval, a.Config.Scheduler.Timeout
	}

	interval, err := durationOrDefault(intervalStr, scheduler.DefaultInterval, "scheduler interval")
	if err != nil {
		return nil, err
	}
	timeout, err := durationOrDefault(timeoutStr, scheduler.DefaultTimeout, "scheduler timeout")
	if err != nil {
		return nil, err
	}

	return scheduler.New(a.Manager, a.Contexts,
		scheduler.WithInterval(interval),
		scheduler.WithTimeout(timeout),
		scheduler.WithSink(a.Sink),
		scheduler.WithNotifier(a.Notifiers),
		scheduler.WithIgnoredKeys("latency_ms"),
		scheduler.WithCycleHook(a.observeCycle),
	), nil
}

func (a *Agent) observeCycle(c scheduler.Cycle) {
	a.Metrics.Cycles.Inc()
	for _, ev := range c.Events {
		a.Metrics.CheckChanges.WithLabelValues(ev.Check).Inc()
	}
}

// Run serves the status api and runs the scheduler until ctx is cancelled
// or the api fails.
func (a *Agent) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Server.Start()
	}()

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		_ = a.Scheduler.Run(ctx)
	}()

	var err error
	select {
	case err = <-serverErr:
		if err != nil {
			log.WithError(err).Error("status api failed")
		}
		cancel()
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		if serr := a.Server.Shutdown(shutdownCtx); serr != nil {
			log.WithError(serr).Warn("could not shut down status api")
		}
		stop()
		<-serverErr
	}

	<-schedulerDone
	return err
}

// Close releases sink and notifier connections.
func (a *Agent) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
