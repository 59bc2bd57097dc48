package check

import (
	"context"
	"time"

	"github.com/mittwald/mittcheck/pkg/value"
	log "github.com/sirupsen/logrus"
)

// Probe is a protocol level liveness check, as implemented by package probe.
type Probe interface {
	Exec(ctx context.Context) error
}

var _ Queryable = &NativeCheck{}

// NativeCheck adapts a Probe to the Queryable contract. Its snapshots look
// like {"ok": true, "message": "alive", "latency_ms": 1.2}; a failed probe
// yields ok=false and the probe error under "error".
type NativeCheck struct {
	state
	name  string
	probe Probe
}

func NewNativeCheck(name string, p Probe) *NativeCheck {
	return &NativeCheck{name: name, probe: p}
}

func (c *NativeCheck) Query(ctx context.Context, _ value.Snapshot) value.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	err := c.probe.Exec(ctx)
	latency := float64(time.Since(start).Microseconds()) / 1000

	var snap value.Snapshot
	if err != nil {
		log.WithFields(log.Fields{"kind": "probe", "name": c.name, "err": err}).Warn("probe failed")
		snap = value.NewSnapshot(map[string]value.Value{
			"ok":         value.Bool(false),
			"error":      value.String(err.Error()),
			"latency_ms": value.Float(latency),
		})
	} else {
		snap = value.NewSnapshot(map[string]value.Value{
			"ok":         value.Bool(true),
			"message":    value.String("alive"),
			"latency_ms": value.Float(latency),
		})
	}

	c.store(snap)
	return snap
}
