// Package csvio encodes the transaction collection to CSV text and decodes
// CSV text back into records for merge-import. Encoding and decoding are
// RFC4180-style (quoted fields, doubled quotes, \r tolerated); the header may
// reorder or add columns, and rows are mapped to fields by header position.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"spendlite/internal/core"
)

// ErrMissingColumns signals a header lacking one of the required columns.
// The import fails as a whole; there is no partial import.
var ErrMissingColumns = errors.New("missing required columns")

var header = []string{"id", "type", "category", "amount", "date", "note"}

// requiredColumns must all be present in an import header. note is optional.
var requiredColumns = []string{"id", "type", "category", "amount", "date"}

// fallbackCategory replaces a blank category on import.
const fallbackCategory = "Other"

// Encode renders records as CSV text: fixed header, one row per record in
// collection order, amounts as decimal strings, empty notes as empty fields.
func Encode(records []core.Transaction) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, t := range records {
		row := []string{t.ID, string(t.Kind), t.Category, t.Amount.String(), t.Date, t.Note}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write record %s: %w", t.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return b.String(), nil
}

// DecodeOptions injects the two ambient inputs decoding needs: the current
// date for blank date fields and an id generator for blank ids. The codec
// itself has neither a clock nor an id source.
type DecodeOptions struct {
	Today string
	NewID func() string
}

// Decode parses CSV text into records ready for merge-import. Row handling is
// deliberately lenient, unlike the interactive entry contract: unknown type
// defaults to expense, blank category to "Other", malformed amounts to 0,
// blank ids to a fresh id, and dates are truncated to YYYY-MM-DD with blank
// falling back to Today. Decoded records are not re-run through
// core.Normalize.
func Decode(text string, opts DecodeOptions) ([]core.Transaction, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	head, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty input", ErrMissingColumns)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(head))
	for i, name := range head {
		index[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var records []core.Transaction
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		records = append(records, decodeRow(row, index, opts))
	}
	return records, nil
}

func decodeRow(row []string, index map[string]int, opts DecodeOptions) core.Transaction {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	id := field("id")
	if id == "" && opts.NewID != nil {
		id = opts.NewID()
	}

	category := field("category")
	if category == "" {
		category = fallbackCategory
	}

	date := core.TruncateDate(field("date"))
	if date == "" {
		date = opts.Today
	}

	return core.Transaction{
		ID:       id,
		Kind:     core.ParseKind(field("type")),
		Category: category,
		Amount:   core.Money{Cents: core.ParseCentsLenient(field("amount"))},
		Date:     date,
		Note:     field("note"),
	}
}
