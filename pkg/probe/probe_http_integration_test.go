//go:build integration
// +build integration

package probe

import (
	"context"
	"flag"
	"testing"

	"github.com/mittwald/mittcheck/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	httpHost = flag.String("http.host", svcHost("127.0.0.1", "http"), "HTTP integration server host")
	httpPort = flag.Uint("http.port", svcPort(18080, 80), "HTTP integration server port")
)

func TestHttpProbeExecOk(t *testing.T) {
	subject := newHttpIntegrationSubject(t, "/anything")
	err := subject.Exec(context.Background())

	assert.NoError(t, err, "Exec")
}

func TestHttpProbeExecErrorStatusCode(t *testing.T) {
	subject := newHttpIntegrationSubject(t, "/status/503")
	err := subject.Exec(context.Background())

	assert.ErrorContains(t, err, "returned status", "Exec")
}

func newHttpIntegrationSubject(t *testing.T, path string) *httpProbe {
	subject, err := NewHttpProbe(&config.HTTP{
		Host: config.Host{Hostname: *httpHost, Port: portString(*httpPort)},
		Path: path,
	})
	require.NoError(t, err)
	return subject
}
