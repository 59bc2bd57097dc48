package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mittwald/mittcheck/pkg/value"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultTable = "check_snapshots"

// Postgres stores snapshots as jsonb rows.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgres connects to dsn and creates the table if it does not exist.
func NewPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	if table == "" {
		table = DefaultTable
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "invalid postgres url")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "could not create postgres pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "could not reach postgres")
	}

	p := &Postgres{pool: pool, table: pgx.Identifier{table}.Sanitize()}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.WithFields(log.Fields{"kind": "sink", "name": "postgres", "table": table}).Info("connected")
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
  id         UUID PRIMARY KEY,
  check_name TEXT NOT NULL,
  snapshot   JSONB NOT NULL,
  checked_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s (check_name, checked_at DESC);`,
		p.table, pgx.Identifier{"idx_" + trimQuotes(p.table) + "_check_time"}.Sanitize())

	_, err := p.pool.Exec(ctx, stmt)
	return errors.Wrap(err, "could not create snapshot table")
}

func (p *Postgres) Store(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	insert := fmt.Sprintf(`INSERT INTO %s (id, check_name, snapshot, checked_at) VALUES ($1, $2, $3, $4)`, p.table)
	for _, r := range records {
		doc, err := value.ToJSON(r.Snapshot.Value())
		if err != nil {
			return errors.Wrapf(err, "could not encode snapshot of %q", r.Check)
		}
		batch.Queue(insert, r.ID.String(), r.Check, string(doc), r.CheckedAt)
	}

	return errors.Wrap(p.pool.SendBatch(ctx, batch).Close(), "could not store snapshots")
}

func (p *Postgres) History(ctx context.Context, check string, limit int) ([]Record, error) {
	query := fmt.Sprintf(`SELECT id::text, check_name, snapshot::text, checked_at FROM %s WHERE check_name = $1 ORDER BY checked_at DESC`, p.table)
	args := []any{check}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "could not query history")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r   Record
			id  string
			doc string
		)
		if err := rows.Scan(&id, &r.Check, &doc, &r.CheckedAt); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if err := r.Snapshot.UnmarshalJSON([]byte(doc)); err != nil {
			return nil, errors.Wrapf(err, "could not decode snapshot %s", r.ID)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
