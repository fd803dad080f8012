package core

import (
	"errors"
	"strings"
)

// Kind distinguishes income from expense entries.
type Kind string

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// ParseKind maps the serialized form to a Kind. Anything that is not exactly
// "income" is an expense, which is also the CSV-import default.
func ParseKind(s string) Kind {
	if Kind(s) == Income {
		return Income
	}
	return Expense
}

// Transaction is a single income or expense entry. ID is opaque, unique
// within the collection, and immutable after creation. Date is a 10-character
// ISO YYYY-MM-DD string, so lexicographic order equals chronological order.
type Transaction struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"type"`
	Category string `json:"category"`
	Amount   Money  `json:"amount"`
	Date     string `json:"date"`
	Note     string `json:"note"`
}

// Draft is an unvalidated transaction as captured from an entry form. Amount
// is the raw decimal string the user typed.
type Draft struct {
	Kind     Kind
	Category string
	Amount   string
	Date     string
	Note     string
}

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
	ErrNotFound      = errors.New("transaction not found")
)

// dateLen is the length of an ISO calendar date; longer timestamp-like inputs
// are truncated to it.
const dateLen = 10

// Normalize validates and canonicalizes a draft into a transaction without an
// ID (the store assigns one). The same contract backs interactive add, edit,
// and the strict side of import: category and note are trimmed, an empty
// category or non-positive amount rejects the draft, the amount is rounded
// half-up at the cent boundary, a blank date falls back to the caller's
// current date (the core has no clock), and longer dates are truncated to
// YYYY-MM-DD. Normalizing an already-normalized transaction is a no-op.
func Normalize(d Draft, today string) (Transaction, error) {
	category := strings.TrimSpace(d.Category)
	if category == "" {
		return Transaction{}, ErrEmptyCategory
	}

	cents, err := ParseCents(d.Amount)
	if err != nil {
		return Transaction{}, err
	}

	kind := d.Kind
	if !kind.Valid() {
		kind = Expense
	}

	date := strings.TrimSpace(d.Date)
	if date == "" {
		date = today
	}
	date = TruncateDate(date)

	return Transaction{
		Kind:     kind,
		Category: category,
		Amount:   Money{Cents: cents},
		Date:     date,
		Note:     strings.TrimSpace(d.Note),
	}, nil
}

// TruncateDate cuts a timestamp-like string down to its YYYY-MM-DD prefix.
func TruncateDate(s string) string {
	if len(s) > dateLen {
		return s[:dateLen]
	}
	return s
}

// YearMonth returns the YYYY-MM bucket key of a date.
func YearMonth(date string) string {
	if len(date) > 7 {
		return date[:7]
	}
	return date
}
