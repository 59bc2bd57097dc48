package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/mittwald/mittcheck/internal/config"
	"github.com/mittwald/mittcheck/internal/helper"
	"github.com/mittwald/mittcheck/pkg/bridge"
	"github.com/mittwald/mittcheck/pkg/check"
	"github.com/mittwald/mittcheck/pkg/notify"
	"github.com/mittwald/mittcheck/pkg/probe"
	"github.com/mittwald/mittcheck/pkg/script"
	"github.com/mittwald/mittcheck/pkg/sink"
	"github.com/mittwald/mittcheck/pkg/value"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// BuildBridge creates the host function bridge including all configured
// remote transports.
func BuildBridge(cfg *config.Agent) (*bridge.Bridge, error) {
	var opts []bridge.Option

	if cfg.Bridge != nil {
		timeout, err := helper.ParseDurationOrDefault(cfg.Bridge.Timeout, bridge.DefaultTimeout)
		if err != nil {
			return nil, errors.Wrap(err, "invalid bridge timeout")
		}
		opts = append(opts, bridge.WithTimeout(timeout))
	}

	for _, r := range cfg.Remotes {
		switch r.Protocol {
		case "ssh":
			timeout, err := helper.ParseDurationOrDefault(r.Timeout, bridge.DefaultTimeout)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid timeout of remote %q", r.Protocol)
			}
			t, err := bridge.NewSSHTransport(helper.ResolveEnv(r.KnownHostsFile), r.InsecureIgnoreHostKey, timeout)
			if err != nil {
				return nil, err
			}
			opts = append(opts, bridge.WithRemoteTransport(t))
		default:
			return nil, fmt.Errorf("remote %q: unsupported protocol", r.Protocol)
		}
		if r.Default {
			opts = append(opts, bridge.WithDefaultRemote(r.Protocol))
		}
	}

	return bridge.New(opts...), nil
}

// BuildScript compiles and validates a configured script.
func BuildScript(cfg *config.Script, host script.Host, defaults *config.Bridge) (*script.Script, error) {
	src, err := cfg.LoadSource()
	if err != nil {
		return nil, err
	}

	caps, err := bridge.ParseCapabilities(cfg.Capabilities)
	if err != nil {
		return nil, err
	}

	timeoutStr, maxSteps := cfg.Timeout, cfg.MaxSteps
	if defaults != nil {
		if timeoutStr == "" {
			timeoutStr = defaults.ScriptTimeout
		}
		if maxSteps == 0 {
			maxSteps = defaults.MaxSteps
		}
	}
	timeout, err := helper.ParseDurationOrDefault(timeoutStr, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid timeout of script %q", cfg.Name)
	}

	opts := []script.Option{script.WithHost(host), script.WithCapabilities(caps)}
	if timeout > 0 {
		opts = append(opts, script.WithTimeout(timeout))
	}
	if maxSteps > 0 {
		opts = append(opts, script.WithMaxSteps(uint64(maxSteps)))
	}

	return script.New(cfg.Name, src, opts...)
}

// ContextSnapshot converts a configured context block.
func ContextSnapshot(ctx map[string]interface{}) (value.Snapshot, error) {
	if len(ctx) == 0 {
		return value.EmptySnapshot(), nil
	}
	v, err := value.FromGo(flattenHCL(ctx))
	if err != nil {
		return value.Snapshot{}, err
	}
	return value.SnapshotFromValue(v)
}

// flattenHCL unwraps the single-element lists HCL produces for nested
// blocks.
func flattenHCL(in any) any {
	switch t := in.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, v := range t {
			out[k] = flattenHCL(v)
		}
		return out
	case []map[string]interface{}:
		if len(t) == 1 {
			return flattenHCL(t[0])
		}
		out := make([]interface{}, len(t))
		for i, v := range t {
			out[i] = flattenHCL(v)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, v := range t {
			out[i] = flattenHCL(v)
		}
		return out
	default:
		return in
	}
}

func (a *Agent) buildScriptCheck(cfg *config.Script, qualified string) (check.Queryable, value.Snapshot, bool) {
	s, err := BuildScript(cfg, a.Bridge, a.Config.Bridge)
	if err != nil {
		log.WithFields(log.Fields{"kind": "script", "name": qualified}).WithError(err).Error("script rejected")
		a.Rejected[qualified] = err
		return nil, value.Snapshot{}, false
	}

	info, err := ContextSnapshot(cfg.Context)
	if err != nil {
		log.WithFields(log.Fields{"kind": "script", "name": qualified}).WithError(err).Error("script rejected")
		a.Rejected[qualified] = errors.Wrap(err, "invalid context")
		return nil, value.Snapshot{}, false
	}

	log.WithFields(log.Fields{"kind": "script", "name": qualified, "version": s.Version(), "capabilities": s.Capabilities().List()}).Info("script loaded")
	return check.NewScriptCheck(s), info, true
}

func (a *Agent) buildChecks() error {
	for i := range a.Config.Scripts {
		cfg := &a.Config.Scripts[i]
		q, info, ok := a.buildScriptCheck(cfg, cfg.Name)
		if !ok {
			continue
		}
		if err := a.Manager.Register(cfg.Name, q); err != nil {
			return err
		}
		a.Contexts[cfg.Name] = info
	}

	for i := range a.Config.Probes {
		cfg := &a.Config.Probes[i]
		p, err := probe.New(cfg)
		if err != nil {
			return err
		}
		if err := a.Manager.Register(cfg.Name, check.NewNativeCheck(cfg.Name, p)); err != nil {
			return err
		}
	}

	for i := range a.Config.Endpoints {
		if err := a.buildEndpoint(&a.Config.Endpoints[i]); err != nil {
			return err
		}
	}

	return nil
}

func (a *Agent) buildEndpoint(cfg *config.Endpoint) error {
	workers := cfg.Workers
	if workers == 0 && a.Config.Scheduler != nil {
		workers = a.Config.Scheduler.Workers
	}
	e := check.NewEndpoint(cfg.Name, workers)

	for i := range cfg.Scripts {
		child := &cfg.Scripts[i]
		q, info, ok := a.buildScriptCheck(child, cfg.Name+"."+child.Name)
		if !ok {
			continue
		}
		if err := e.Add(child.Name, check.WithDefaults(q, info)); err != nil {
			return err
		}
	}

	for i := range cfg.Probes {
		child := &cfg.Probes[i]
		p, err := probe.New(child)
		if err != nil {
			return errors.Wrapf(err, "endpoint %q", cfg.Name)
		}
		if err := e.Add(child.Name, check.NewNativeCheck(cfg.Name+"."+child.Name, p)); err != nil {
			return err
		}
	}

	if len(e.Children()) == 0 {
		log.WithFields(log.Fields{"kind": "endpoint", "name": cfg.Name}).Warn("endpoint has no usable children")
	}

	info, err := ContextSnapshot(cfg.Context)
	if err != nil {
		return errors.Wrapf(err, "endpoint %q: invalid context", cfg.Name)
	}
	a.Contexts[cfg.Name] = info

	return a.Manager.Register(cfg.Name, e)
}

func (a *Agent) buildSink(ctx context.Context) error {
	switch {
	case a.Config.Sink != nil && a.Config.Sink.Postgres != nil:
		pg := a.Config.Sink.Postgres
		p, err := sink.NewPostgres(ctx, helper.ResolveEnv(pg.URL), pg.Table)
		if err != nil {
			return err
		}
		a.Sink = p
	case a.Config.Sink != nil && a.Config.Sink.Memory != nil:
		a.Sink = sink.NewMemory(a.Config.Sink.Memory.History)
	default:
		a.Sink = sink.NewMemory(sink.DefaultHistory)
	}
	return nil
}

func (a *Agent) buildNotifiers() error {
	if a.Config.Notify == nil {
		return nil
	}

	for _, w := range a.Config.Notify.Webhooks {
		timeout, err := helper.ParseDurationOrDefault(w.Timeout, 0)
		if err != nil {
			return errors.Wrap(err, "invalid webhook timeout")
		}
		n, err := notify.NewWebhook(helper.ResolveEnv(w.URL), w.Template, timeout)
		if err != nil {
			return err
		}
		a.Notifiers = append(a.Notifiers, n)
	}

	for _, p := range a.Config.Notify.Amqp {
		pub := notify.NewAmqpPublisher(helper.ResolveEnv(p.URL), p.Exchange, p.RoutingKey)
		a.Notifiers = append(a.Notifiers, pub)
		a.closers = append(a.closers, pub.Close)
	}

	return nil
}

func durationOrDefault(in string, def time.Duration, what string) (time.Duration, error) {
	d, err := helper.ParseDurationOrDefault(in, def)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", what)
	}
	return d, nil
}
