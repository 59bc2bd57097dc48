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
	redisHost = flag.String("redis.host", svcHost("127.0.0.1", "redis"), "Redis integration server host")
	redisPort = flag.Uint("redis.port", svcPort(16379, 6379), "Redis integration server port")
)

func TestRedisProbeExecOk(t *testing.T) {
	subject := NewRedisProbe(&config.Redis{Host: config.Host{Hostname: *redisHost, Port: portString(*redisPort)}}, defaultTimeout)
	err := subject.Exec(context.Background())

	assert.NoError(t, err, "Exec")
}
