package sink

import (
	"context"
	"sync"
)

const DefaultHistory = 100

// Memory keeps the last N records per check.
type Memory struct {
	mu      sync.RWMutex
	history int
	records map[string][]Record
}

func NewMemory(history int) *Memory {
	if history <= 0 {
		history = DefaultHistory
	}
	return &Memory{
		history: history,
		records: make(map[string][]Record),
	}
}

func (m *Memory) Store(ctx context.Context, records ...Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		list := append(m.records[r.Check], r)
		if len(list) > m.history {
			list = append([]Record(nil), list[len(list)-m.history:]...)
		}
		m.records[r.Check] = list
	}
	return nil
}

func (m *Memory) History(ctx context.Context, check string, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.records[check]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]Record, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (m *Memory) Close() error {
	return nil
}
