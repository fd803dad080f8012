package storage

import (
	"context"
	"sync"

	"spendlite/internal/core"
)

// Memory is an in-memory Loader/Saver for tests and ephemeral runs.
type Memory struct {
	mu      sync.Mutex
	records []core.Transaction
}

// NewMemory returns an empty in-memory persistence.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Transaction, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *Memory) Save(_ context.Context, records []core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make([]core.Transaction, len(records))
	copy(m.records, records)
	return nil
}
