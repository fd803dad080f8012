// Package store owns the canonical transaction collection. Every other
// component reads snapshots; mutations go through the store, which persists
// the full collection after each one and emits optional change events.
package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"spendlite/internal/core"
)

// Ports for the persistence collaborators called around every mutation.
type (
	// Loader reads the full persisted collection at startup.
	Loader interface {
		Load(ctx context.Context) ([]core.Transaction, error)
	}

	// Saver writes the full collection back after a mutation. A failing save
	// is logged and swallowed: the in-memory collection stays authoritative
	// for the session.
	Saver interface {
		Save(ctx context.Context, records []core.Transaction) error
	}

	// EventPublisher receives a change notification after each applied
	// mutation. Publish failures never fail the mutation.
	EventPublisher interface {
		PublishChange(ctx context.Context, op string, transactionID string) error
	}
)

// Change operations reported to the EventPublisher.
const (
	OpCreated  = "created"
	OpUpdated  = "updated"
	OpDeleted  = "deleted"
	OpImported = "imported"
)

// Store is the single source of truth for the record collection.
type Store struct {
	mu      sync.Mutex
	records []core.Transaction

	saver  Saver
	events EventPublisher
	newID  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithEventPublisher wires an optional change-event publisher.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *Store) { s.events = p }
}

// WithIDGenerator overrides the id generator, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates an empty store persisting through saver.
func New(saver Saver, opts ...Option) *Store {
	s := &Store{
		saver: saver,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LoadFrom replaces the collection with the persisted one. Called once at
// startup, before the store is shared.
func (s *Store) LoadFrom(ctx context.Context, loader Loader) error {
	records, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	slog.InfoContext(ctx, "Loaded transaction collection", "count", len(records))
	return nil
}

// NewID returns a fresh collision-resistant identifier. Exposed so the import
// path can generate ids for rows that lack one.
func (s *Store) NewID() string {
	return s.newID()
}

// Add normalizes the draft, assigns a fresh id, appends, and persists.
func (s *Store) Add(ctx context.Context, d core.Draft, today string) (core.Transaction, error) {
	t, err := core.Normalize(d, today)
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = s.newID()

	s.mu.Lock()
	s.records = append(s.records, t)
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, OpCreated, t.ID)
	return t, nil
}

// Update replaces all mutable fields of the record matching id. The id itself
// never changes. Absent ids report core.ErrNotFound; callers treat that as a
// no-op, not a hard failure.
func (s *Store) Update(ctx context.Context, id string, d core.Draft, today string) (core.Transaction, error) {
	t, err := core.Normalize(d, today)
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = id

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Transaction{}, core.ErrNotFound
	}
	s.records[idx] = t
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, OpUpdated, id)
	return t, nil
}

// Remove deletes the record matching id, reporting core.ErrNotFound when
// absent.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.ErrNotFound
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, OpDeleted, id)
	return nil
}

// MergeImport folds decoded records into the collection: a record whose id
// matches an existing one replaces it in place, preserving collection order;
// the rest are appended in input order. Re-importing the same set is a no-op
// beyond the save, so import is idempotent.
func (s *Store) MergeImport(ctx context.Context, incoming []core.Transaction) int {
	if len(incoming) == 0 {
		return 0
	}

	s.mu.Lock()
	for _, t := range incoming {
		if idx := s.indexLocked(t.ID); idx >= 0 {
			s.records[idx] = t
		} else {
			s.records = append(s.records, t)
		}
	}
	s.saveLocked(ctx)
	count := len(incoming)
	s.mu.Unlock()

	s.publish(ctx, OpImported, "")
	slog.InfoContext(ctx, "Merged imported records", "count", count)
	return count
}

// All returns a read-only snapshot of the collection in insertion order.
// Callers re-sort as needed and must not feed the slice back into the store.
func (s *Store) All() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the current record count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) indexLocked(id string) int {
	for i, t := range s.records {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) saveLocked(ctx context.Context) {
	if s.saver == nil {
		return
	}
	snapshot := make([]core.Transaction, len(s.records))
	copy(snapshot, s.records)
	if err := s.saver.Save(ctx, snapshot); err != nil {
		slog.WarnContext(ctx, "Persisting collection failed, in-memory state remains authoritative",
			"error", err, "count", len(snapshot))
	}
}

func (s *Store) publish(ctx context.Context, op, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishChange(ctx, op, id); err != nil {
		slog.WarnContext(ctx, "Publishing change event failed", "error", err, "op", op, "transaction_id", id)
	}
}
