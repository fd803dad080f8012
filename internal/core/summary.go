package core

import "sort"

// Summary holds the headline totals for a record subset.
type Summary struct {
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Balance Money `json:"balance"`
}

// MonthlyPoint is one YYYY-MM bucket of the income/expense trend series.
type MonthlyPoint struct {
	Month   string `json:"month"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
}

// CategoryTotal is one slice of the per-category expense breakdown.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    Money  `json:"total"`
}

// Summarize sums amounts by kind; Balance is income minus expense.
// Accumulation happens in integer cents, so totals stay exact regardless of
// record count.
func Summarize(records []Transaction) Summary {
	var s Summary
	for _, t := range records {
		if t.Kind == Income {
			s.Income = s.Income.Add(t.Amount)
		} else {
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// MonthlySeries groups records by the YYYY-MM prefix of their date and sums
// per kind per bucket. Buckets are emitted sorted ascending by month; months
// with no activity are not synthesized.
func MonthlySeries(records []Transaction) []MonthlyPoint {
	buckets := make(map[string]*MonthlyPoint)
	for _, t := range records {
		ym := YearMonth(t.Date)
		p, ok := buckets[ym]
		if !ok {
			p = &MonthlyPoint{Month: ym}
			buckets[ym] = p
		}
		if t.Kind == Income {
			p.Income = p.Income.Add(t.Amount)
		} else {
			p.Expense = p.Expense.Add(t.Amount)
		}
	}
	out := make([]MonthlyPoint, 0, len(buckets))
	for _, p := range buckets {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// CategoryTotals sums expense records by exact category string (unlike
// filtering, grouping is not case-folded) and returns the buckets sorted
// descending by total. Ties keep first-seen order.
func CategoryTotals(records []Transaction) []CategoryTotal {
	totals := make(map[string]int64)
	var order []string
	for _, t := range records {
		if t.Kind != Expense {
			continue
		}
		if _, ok := totals[t.Category]; !ok {
			order = append(order, t.Category)
		}
		totals[t.Category] += t.Amount.Cents
	}
	out := make([]CategoryTotal, 0, len(order))
	for _, c := range order {
		out = append(out, CategoryTotal{Category: c, Total: Money{Cents: totals[c]}})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.Cents > out[j].Total.Cents })
	return out
}

// Categories returns the distinct category names of a record set, sorted, for
// entry-form autocompletion.
func Categories(records []Transaction) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range records {
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	sort.Strings(out)
	return out
}
