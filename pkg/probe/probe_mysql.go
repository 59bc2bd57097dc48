package probe

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mittwald/mittcheck/internal/config"
	"github.com/mittwald/mittcheck/internal/helper"
	log "github.com/sirupsen/logrus"
)

type mySQLProbe struct {
	dsn     string
	addr    string
	timeout time.Duration
}

func NewMySQLProbe(cfg *config.MySQL, timeout time.Duration) *mySQLProbe {
	hostname := helper.ResolveEnv(cfg.Hostname)
	port := helper.SetDefaultPort(helper.ResolveEnv(cfg.Port), "3306")

	connCfg := mysql.NewConfig()
	connCfg.User = helper.ResolveEnv(cfg.User)
	connCfg.Passwd = helper.ResolveEnv(cfg.Password)
	connCfg.Net = "tcp"
	connCfg.Addr = net.JoinHostPort(hostname, port)
	connCfg.DBName = helper.ResolveEnv(cfg.Database)
	connCfg.AllowNativePasswords = cfg.AllowNativePasswords
	connCfg.Timeout = timeout
	connCfg.ReadTimeout = timeout

	return &mySQLProbe{
		dsn:     connCfg.FormatDSN(),
		addr:    connCfg.Addr,
		timeout: timeout,
	}
}

func (m *mySQLProbe) Exec(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	db, err := sql.Open("mysql", m.dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	r, err := db.QueryContext(ctx, "SELECT 1")
	if err != nil {
		return err
	}
	_ = r.Close()

	log.WithFields(log.Fields{"kind": "probe", "name": "mysql", "status": "alive", "host": m.addr}).Debug()
	return nil
}
