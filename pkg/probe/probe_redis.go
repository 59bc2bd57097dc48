package probe

import (
	"context"
	"net"
	"time"

	"github.com/go-redis/redis"
	"github.com/mittwald/mittcheck/internal/config"
	"github.com/mittwald/mittcheck/internal/helper"
	log "github.com/sirupsen/logrus"
)

type redisProbe struct {
	addr     string
	password string
	timeout  time.Duration
}

func NewRedisProbe(cfg *config.Redis, timeout time.Duration) *redisProbe {
	hostname := helper.ResolveEnv(cfg.Hostname)
	port := helper.SetDefaultPort(helper.ResolveEnv(cfg.Port), "6379")

	return &redisProbe{
		addr:     net.JoinHostPort(hostname, port),
		password: helper.ResolveEnv(cfg.Password),
		timeout:  timeout,
	}
}

func (r *redisProbe) Exec(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:        r.addr,
		Password:    r.password,
		DialTimeout: r.timeout,
		ReadTimeout: r.timeout,
		MaxRetries:  0,
	}).WithContext(ctx)
	defer func() { _ = client.Close() }()

	if _, err := client.Ping().Result(); err != nil {
		return err
	}

	log.WithFields(log.Fields{"kind": "probe", "name": "redis", "status": "alive", "host": r.addr}).Debug()
	return nil
}
