package probe

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/mittwald/mittcheck/internal/config"
	"github.com/mittwald/mittcheck/internal/helper"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

const (
	defaultVirtualHost = "/"
)

type amqpProbe struct {
	url     url.URL
	timeout time.Duration
}

func NewAmqpProbe(cfg *config.Amqp, timeout time.Duration) *amqpProbe {
	hostname := helper.ResolveEnv(cfg.Hostname)
	port := helper.SetDefaultStringIfEmpty(helper.ResolveEnv(cfg.Port), "5672", "port", "amqp")
	virtualHost := helper.SetDefaultStringIfEmpty(helper.ResolveEnv(cfg.VirtualHost), defaultVirtualHost, "virtualHost", "amqp")

	u := url.URL{
		Scheme: "amqp",
		Host:   net.JoinHostPort(hostname, port),
		Path:   virtualHost,
	}

	user := helper.ResolveEnv(cfg.User)
	password := helper.ResolveEnv(cfg.Password)
	if user != "" && password != "" {
		u.User = url.UserPassword(user, password)
	}

	return &amqpProbe{url: u, timeout: timeout}
}

func (a *amqpProbe) Exec(ctx context.Context) error {
	deadline := time.Now().Add(a.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn, err := amqp.DialConfig(a.url.String(), amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(time.Until(deadline)),
	})
	if err != nil {
		return fmt.Errorf("failed to dial amqp with url '%s': %s", a.url.Redacted(), err.Error())
	}
	defer func() { _ = conn.Close() }()

	log.WithFields(log.Fields{"kind": "probe", "name": "amqp", "status": "alive", "host": a.url.Host}).Debug()
	return nil
}
