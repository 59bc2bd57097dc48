package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mittwald/mittcheck/internal/helper"
	"github.com/mittwald/mittcheck/pkg/bridge"
)

// ValidationErrors collects every problem found by Validate.
type ValidationErrors []error

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, err := range v {
		msgs[i] = err.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Validate checks the config for problems that can be found without
// touching scripts or targets.
func (a *Agent) Validate() error {
	var errs ValidationErrors
	names := make(map[string]string)

	claim := func(kind, name string) {
		if name == "" {
			errs = append(errs, fmt.Errorf("%s without name", kind))
			return
		}
		if other, ok := names[name]; ok {
			errs = append(errs, fmt.Errorf("%s %q: name already used by a %s", kind, name, other))
			return
		}
		names[name] = kind
	}

	duration := func(what, in string) {
		if _, err := helper.ParseDurationOrDefault(in, 0); err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", what, in))
		}
	}

	for i := range a.Scripts {
		claim("script", a.Scripts[i].Name)
		errs = append(errs, a.Scripts[i].validate("script "+a.Scripts[i].Name)...)
	}
	for i := range a.Probes {
		claim("probe", a.Probes[i].Name)
		errs = append(errs, a.Probes[i].validate("probe "+a.Probes[i].Name)...)
	}
	for i := range a.Endpoints {
		e := &a.Endpoints[i]
		claim("endpoint", e.Name)

		children := make(map[string]struct{})
		child := func(name string) {
			if _, ok := children[name]; ok {
				errs = append(errs, fmt.Errorf("endpoint %q: duplicate child %q", e.Name, name))
			}
			children[name] = struct{}{}
		}
		for j := range e.Scripts {
			child(e.Scripts[j].Name)
			errs = append(errs, e.Scripts[j].validate(fmt.Sprintf("endpoint %s: script %s", e.Name, e.Scripts[j].Name))...)
		}
		for j := range e.Probes {
			child(e.Probes[j].Name)
			errs = append(errs, e.Probes[j].validate(fmt.Sprintf("endpoint %s: probe %s", e.Name, e.Probes[j].Name))...)
		}
		if len(e.Scripts)+len(e.Probes) == 0 {
			errs = append(errs, fmt.Errorf("endpoint %q has no children", e.Name))
		}
	}

	if a.Scheduler != nil {
		duration("scheduler interval", a.Scheduler.Interval)
		duration("scheduler timeout", a.Scheduler.Timeout)
	}
	if a.Bridge != nil {
		duration("bridge timeout", a.Bridge.Timeout)
		duration("bridge scriptTimeout", a.Bridge.ScriptTimeout)
	}
	for _, r := range a.Remotes {
		duration("remote "+r.Protocol+" timeout", r.Timeout)
		if r.Protocol != "ssh" {
			errs = append(errs, fmt.Errorf("remote %q: unsupported protocol", r.Protocol))
		}
	}
	if a.Sink != nil && a.Sink.Memory != nil && a.Sink.Postgres != nil {
		errs = append(errs, fmt.Errorf("sink: only one of memory and postgres may be configured"))
	}
	if a.Notify != nil {
		for _, w := range a.Notify.Webhooks {
			if w.URL == "" {
				errs = append(errs, fmt.Errorf("webhook without url"))
			}
			duration("webhook timeout", w.Timeout)
		}
		for _, p := range a.Notify.Amqp {
			if p.URL == "" {
				errs = append(errs, fmt.Errorf("amqp notifier without url"))
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Script) validate(what string) []error {
	var errs []error
	switch {
	case s.File == "" && s.Source == "":
		errs = append(errs, fmt.Errorf("%s: one of file and source is required", what))
	case s.File != "" && s.Source != "":
		errs = append(errs, fmt.Errorf("%s: file and source are mutually exclusive", what))
	}
	if _, err := bridge.ParseCapabilities(s.Capabilities); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", what, err))
	}
	if _, err := helper.ParseDurationOrDefault(s.Timeout, 0); err != nil {
		errs = append(errs, fmt.Errorf("%s: invalid timeout %q", what, s.Timeout))
	}
	if s.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("%s: maxSteps must not be negative", what))
	}
	return errs
}

// Protocol names the configured protocol block of the probe.
func (p *Probe) Protocol() string {
	var set []string
	if p.Filesystem != "" {
		set = append(set, "filesystem")
	}
	if p.MySQL != nil {
		set = append(set, "mysql")
	}
	if p.Redis != nil {
		set = append(set, "redis")
	}
	if p.MongoDB != nil {
		set = append(set, "mongodb")
	}
	if p.Amqp != nil {
		set = append(set, "amqp")
	}
	if p.HTTP != nil {
		set = append(set, "http")
	}
	if p.SMTP != nil {
		set = append(set, "smtp")
	}
	return strings.Join(set, ",")
}

func (p *Probe) validate(what string) []error {
	var errs []error
	switch proto := p.Protocol(); {
	case proto == "":
		errs = append(errs, fmt.Errorf("%s: no protocol block configured", what))
	case strings.Contains(proto, ","):
		errs = append(errs, fmt.Errorf("%s: more than one protocol configured (%s)", what, proto))
	}
	if _, err := time.ParseDuration(helper.SetDefaultStringIfEmpty(helper.ResolveEnv(p.Timeout), "5s", "timeout", "probe")); err != nil {
		errs = append(errs, fmt.Errorf("%s: invalid timeout %q", what, p.Timeout))
	}
	return errs
}
