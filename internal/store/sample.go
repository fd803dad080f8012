package store

import (
	"context"

	"spendlite/internal/core"
)

// sampleEntries is the demo data set, dated relative to the current month.
var sampleEntries = []struct {
	kind     core.Kind
	category string
	cents    int64
	day      string
	note     string
}{
	{core.Income, "Salary", 350000, "-01", "Monthly salary"},
	{core.Expense, "Rent", 120000, "-02", ""},
	{core.Expense, "Groceries", 18045, "-05", "Weekly shop"},
	{core.Expense, "Transport", 6000, "-06", "Pass"},
	{core.Income, "Freelance", 42000, "-10", "Side gig"},
	{core.Expense, "Dining", 4820, "-11", ""},
	{core.Expense, "Utilities", 9510, "-12", ""},
}

// LoadSample prepends the demo data set, dated within the month of today,
// and persists. Existing records are kept after the samples.
func (s *Store) LoadSample(ctx context.Context, today string) []core.Transaction {
	base := core.YearMonth(today)
	sample := make([]core.Transaction, 0, len(sampleEntries))
	for _, e := range sampleEntries {
		sample = append(sample, core.Transaction{
			ID:       s.newID(),
			Kind:     e.kind,
			Category: e.category,
			Amount:   core.Money{Cents: e.cents},
			Date:     base + e.day,
			Note:     e.note,
		})
	}

	s.mu.Lock()
	s.records = append(sample, s.records...)
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, OpImported, "")
	return sample
}
