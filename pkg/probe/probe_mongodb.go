package probe

import (
	"context"
	"net"
	"net/url"
	"time"

	"github.com/mittwald/mittcheck/internal/config"
	"github.com/mittwald/mittcheck/internal/helper"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type mongoDBProbe struct {
	uri     string
	host    string
	timeout time.Duration
}

func NewMongoDBProbe(cfg *config.MongoDB, timeout time.Duration) *mongoDBProbe {
	p := &mongoDBProbe{timeout: timeout}

	if uri := helper.ResolveEnv(cfg.URL); uri != "" {
		p.uri = uri
		p.host = "url"
		return p
	}

	hostname := helper.ResolveEnv(cfg.Hostname)
	port := helper.SetDefaultStringIfEmpty(helper.ResolveEnv(cfg.Port), "27017", "port", "mongodb")

	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(hostname, port),
		Path:   "/" + helper.ResolveEnv(cfg.Database),
	}

	user := helper.ResolveEnv(cfg.User)
	password := helper.ResolveEnv(cfg.Password)
	if user != "" {
		u.User = url.UserPassword(user, password)
	}

	q := url.Values{}
	if v := helper.ResolveEnv(cfg.ReplicaSetName); v != "" {
		q.Set("replicaSet", v)
	}
	if v := helper.ResolveEnv(cfg.AuthenticationDatabase); v != "" {
		q.Set("authSource", v)
	}
	if v := helper.ResolveEnv(cfg.AuthenticationMechanism); v != "" {
		q.Set("authMechanism", v)
	}
	if v := helper.ResolveEnv(cfg.GssapiServiceName); v != "" {
		q.Set("authMechanismProperties", "SERVICE_NAME:"+v)
	}
	u.RawQuery = q.Encode()

	p.uri = u.String()
	p.host = u.Host
	return p
}

func (m *mongoDBProbe) Exec(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.uri).SetServerSelectionTimeout(m.timeout))
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}

	log.WithFields(log.Fields{"kind": "probe", "name": "mongodb", "status": "alive", "host": m.host}).Debug()
	return nil
}
