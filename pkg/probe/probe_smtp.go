package probe

import (
	"context"
	"net"
	"net/smtp"
	"time"

	"github.com/mittwald/mittcheck/internal/config"
	"github.com/mittwald/mittcheck/internal/helper"
	log "github.com/sirupsen/logrus"
)

type smtpProbe struct {
	addr    string
	host    string
	timeout time.Duration
}

func NewSmtpProbe(cfg *config.SMTP, timeout time.Duration) *smtpProbe {
	hostname := helper.ResolveEnv(cfg.Hostname)
	port := helper.SetDefaultStringIfEmpty(helper.ResolveEnv(cfg.Port), "25", "port", "smtp")

	return &smtpProbe{
		addr:    net.JoinHostPort(hostname, port),
		host:    hostname,
		timeout: timeout,
	}
}

func (s *smtpProbe) Exec(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Noop(); err != nil {
		return err
	}

	if err := client.Quit(); err != nil {
		return err
	}

	log.WithFields(log.Fields{"kind": "probe", "name": "smtp", "status": "alive", "host": s.addr}).Debug()
	return nil
}
