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
	mysqlHost     = flag.String("mysql.host", svcHost("127.0.0.1", "mysql"), "MySQL integration server host")
	mysqlPort     = flag.Uint("mysql.port", svcPort(13306, 3306), "MySQL integration server port")
	mysqlUsername = flag.String("mysql.username", "tester", "MySQL integration username")
	mysqlPassword = flag.String("mysql.password", "integration_test", "MySQL integration password")
	mysqlDatabase = flag.String("mysql.database", "integration", "MySQL integration database")
)

func TestMysqlProbeExecOk(t *testing.T) {
	subject := NewMySQLProbe(&config.MySQL{
		Credentials:          config.Credentials{User: *mysqlUsername, Password: *mysqlPassword},
		Host:                 config.Host{Hostname: *mysqlHost, Port: portString(*mysqlPort)},
		Database:             *mysqlDatabase,
		AllowNativePasswords: true,
	}, defaultTimeout)
	err := subject.Exec(context.Background())

	assert.NoError(t, err, "Exec")
}
