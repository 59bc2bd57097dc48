package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/mittwald/mittcheck/internal/config"
	"github.com/mittwald/mittcheck/internal/helper"
)

const defaultTimeout = 5 * time.Second

// Probe checks the liveness of one service. Exec returns nil if the
// service is alive.
type Probe interface {
	Exec(ctx context.Context) error
}

// New builds the probe for the protocol block configured in cfg.
func New(cfg *config.Probe) (Probe, error) {
	timeout, err := helper.ParseDurationOrDefault(cfg.Timeout, defaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("probe %q: invalid timeout: %w", cfg.Name, err)
	}

	switch {
	case cfg.Filesystem != "":
		return &filesystemProbe{path: helper.ResolveEnv(cfg.Filesystem)}, nil
	case cfg.MySQL != nil:
		return NewMySQLProbe(cfg.MySQL, timeout), nil
	case cfg.Redis != nil:
		return NewRedisProbe(cfg.Redis, timeout), nil
	case cfg.MongoDB != nil:
		return NewMongoDBProbe(cfg.MongoDB, timeout), nil
	case cfg.Amqp != nil:
		return NewAmqpProbe(cfg.Amqp, timeout), nil
	case cfg.HTTP != nil:
		return NewHttpProbe(cfg.HTTP)
	case cfg.SMTP != nil:
		return NewSmtpProbe(cfg.SMTP, timeout), nil
	}

	return nil, fmt.Errorf("probe %q: no protocol configured", cfg.Name)
}
