package sink

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mittwald/mittcheck/pkg/value"
)

// Record is one stored snapshot of a check.
type Record struct {
	ID        uuid.UUID      `json:"id"`
	Check     string         `json:"check"`
	Snapshot  value.Snapshot `json:"snapshot"`
	CheckedAt time.Time      `json:"checkedAt"`
}

// NewRecord stamps snap with a fresh id.
func NewRecord(check string, snap value.Snapshot, at time.Time) Record {
	return Record{ID: uuid.New(), Check: check, Snapshot: snap, CheckedAt: at.UTC()}
}

// Sink persists check snapshots.
type Sink interface {
	Store(ctx context.Context, records ...Record) error
	// History returns at most limit records of check, newest first.
	History(ctx context.Context, check string, limit int) ([]Record, error)
	Close() error
}
