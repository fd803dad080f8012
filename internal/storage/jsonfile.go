// Package storage provides the persistence collaborators behind the store's
// Loader/Saver ports: a single-blob JSON file, a SQLite repository, and an
// in-memory variant for tests.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"spendlite/internal/core"
)

// DefaultJSONFileName is the fixed blob name under the data directory.
const DefaultJSONFileName = "spendlite.json"

// JSONFile persists the whole collection as one JSON array at a fixed path.
// A missing or unreadable blob loads as an empty collection so a fresh or
// damaged data file never blocks startup.
type JSONFile struct {
	path string
}

// NewJSONFile returns a blob store rooted at path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the blob location.
func (j *JSONFile) Path() string {
	return j.path
}

// Load reads the persisted collection. Missing and corrupt files both yield
// an empty collection; corruption is logged, not surfaced.
func (j *JSONFile) Load(ctx context.Context) ([]core.Transaction, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read blob %s: %w", j.path, err)
	}
	var records []core.Transaction
	if err := json.Unmarshal(data, &records); err != nil {
		slog.WarnContext(ctx, "Discarding corrupt transaction blob", "path", j.path, "error", err)
		return nil, nil
	}
	return records, nil
}

// Save writes the full collection, replacing the blob atomically via a
// sibling temp file so a crash mid-write cannot truncate the data.
func (j *JSONFile) Save(_ context.Context, records []core.Transaction) error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if records == nil {
		records = []core.Transaction{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	if err := os.Rename(tmp, j.path); err != nil {
		return fmt.Errorf("replace blob: %w", err)
	}
	return nil
}
