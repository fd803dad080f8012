package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"spendlite/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteSaveLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	records := []core.Transaction{
		{ID: "a", Kind: core.Income, Category: "Salary", Amount: core.Money{Cents: 350000}, Date: "2024-01-01", Note: "Monthly"},
		{ID: "b", Kind: core.Expense, Category: "Rent", Amount: core.Money{Cents: 120000}, Date: "2024-01-02"},
	}

	if err := repo.Save(ctx, records); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, records)
	}
}

func TestSQLiteSaveReplacesCollection(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := []core.Transaction{
		{ID: "a", Kind: core.Expense, Category: "Food", Amount: core.Money{Cents: 500}, Date: "2024-01-01"},
		{ID: "b", Kind: core.Expense, Category: "Gas", Amount: core.Money{Cents: 700}, Date: "2024-01-02"},
	}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	second := []core.Transaction{
		{ID: "c", Kind: core.Income, Category: "Bonus", Amount: core.Money{Cents: 10000}, Date: "2024-02-01"},
	}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c" {
		t.Errorf("save must replace the collection, got %+v", got)
	}
}

func TestSQLiteLoadEmpty(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("fresh database must load empty, got %d records", len(got))
	}
}

func TestSQLiteAuditTrail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, op := range []string{"created", "updated", "deleted"} {
		if err := repo.AppendAudit(ctx, op, "tx-1", time.Now()); err != nil {
			t.Fatalf("AppendAudit(%s): %v", op, err)
		}
	}

	n, err := repo.CountAudit(ctx)
	if err != nil {
		t.Fatalf("CountAudit: %v", err)
	}
	if n != 3 {
		t.Errorf("audit count = %d, want 3", n)
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	records := []core.Transaction{
		{ID: "a", Kind: core.Expense, Category: "Food", Amount: core.Money{Cents: 500}, Date: "2024-01-01"},
	}
	if err := repo.Save(ctx, records); err != nil {
		t.Fatalf("Save: %v", err)
	}
	repo.Close()

	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("reopened data mismatch:\ngot  %+v\nwant %+v", got, records)
	}
}
