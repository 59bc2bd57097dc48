//go:build integration
// +build integration

package probe

import (
	"context"
	"flag"
	"testing"

	"github.com/mittwald/mittcheck/internal/config"
	"github.com/stretchr/testify/assert"
)

var (
	smtpHost = flag.String("smtp.host", svcHost("127.0.0.1", "smtp"), "SMTP integration server host")
	smtpPort = flag.Uint("smtp.port", svcPort(12525, 1025), "SMTP integration server port")
)

func TestSmtpProbeExecOk(t *testing.T) {
	subject := NewSmtpProbe(&config.SMTP{Host: config.Host{Hostname: *smtpHost, Port: portString(*smtpPort)}}, defaultTimeout)
	err := subject.Exec(context.Background())

	assert.NoError(t, err, "Exec")
}
