// Package backend selects and opens the persistence behind the store based on
// configuration.
package backend

import (
	"context"

	"spendlite/internal/core"
)

// Type names a persistence backend.
type Type string

const (
	JSONBackend   Type = "json"
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid reports whether the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case JSONBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{JSONBackend, SQLiteBackend, MemoryBackend}
}

// Persistence is the combined Loader/Saver surface a backend must provide.
type Persistence interface {
	Load(ctx context.Context) ([]core.Transaction, error)
	Save(ctx context.Context, records []core.Transaction) error
}

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result bundles an opened persistence with its cleanup.
type Result struct {
	Persistence Persistence
	Cleanup     CleanupFunc
}

// Config holds what the factory needs to open a backend.
type Config struct {
	Type         Type
	JSONPath     string
	SQLiteDBPath string
}
