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
	mongodbHost     = flag.String("mongodb.host", svcHost("127.0.0.1", "mongo"), "MongoDB integration server host")
	mongodbPort     = flag.Uint("mongodb.port", svcPort(17017, 27017), "MongoDB integration server port")
	mongodbDatabase = flag.String("mongodb.database", "integration", "MongoDB integration database")
)

func TestMongoDBProbeExecOk(t *testing.T) {
	subject := NewMongoDBProbe(&config.MongoDB{
		Host:     config.Host{Hostname: *mongodbHost, Port: portString(*mongodbPort)},
		Database: *mongodbDatabase,
	}, defaultTimeout)
	err := subject.Exec(context.Background())

	assert.NoError(t, err, "Exec")
}
