package check

import (
	"context"
	"time"

	"github.com/mittwald/mittcheck/pkg/script"
	"github.com/mittwald/mittcheck/pkg/value"
	log "github.com/sirupsen/logrus"
)

var _ Queryable = &ScriptCheck{}

// ScriptCheck is a Queryable backed by a validated script.
type ScriptCheck struct {
	state
	script *script.Script
}

func NewScriptCheck(s *script.Script) *ScriptCheck {
	return &ScriptCheck{script: s}
}

func (c *ScriptCheck) Script() *script.Script {
	return c.script
}

func (c *ScriptCheck) Query(ctx context.Context, info value.Snapshot) value.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	snap := c.script.Execute(ctx, info)
	c.store(snap)

	fields := log.Fields{"kind": "check", "name": c.script.Name(), "version": c.script.Version(), "duration": time.Since(start)}
	if msg, failed := snap.Error(); failed {
		log.WithFields(fields).Warnf("script check failed: %s", msg)
	} else {
		log.WithFields(fields).Debug("script check completed")
	}

	return snap
}
