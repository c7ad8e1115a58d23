// Package tabular converts parsed spreadsheet rows into a canonical table
// representation. Parsing itself happens upstream; this is the adapter
// boundary between uploaded files and the insight pipeline.
package tabular

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sheetsightai/sheetsight/internal/models"
)

// rawTextRowLimit caps the number of rows included in the plain-text sample
// handed to the language model.
const rawTextRowLimit = 20

// Table is the canonical in-memory tabular representation of a dataset.
// Rows are ordered as received and treated as immutable downstream.
type Table struct {
	Columns []string
	Rows    []map[string]any
}

// Normalize reconciles parsed rows against the declared column schema and
// returns a canonical Table. It fails with models.ErrMalformedInput when rows
// are empty, columns are empty, or a row carries a key outside the schema.
func Normalize(columns []string, rows []map[string]any) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no columns declared", models.ErrMalformedInput)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", models.ErrMalformedInput)
	}

	known := make(map[string]bool, len(columns))
	for _, col := range columns {
		if col == "" {
			return nil, fmt.Errorf("%w: empty column name", models.ErrMalformedInput)
		}

		known[col] = true
	}

	for i, row := range rows {
		for key := range row {
			if !known[key] {
				return nil, fmt.Errorf("%w: row %d has unknown column %q", models.ErrMalformedInput, i, key)
			}
		}
	}

	return &Table{Columns: columns, Rows: rows}, nil
}

// Describe returns a natural-language summary of the table's shape and
// detected business domains, used both as the stored dataset description and
// as grounding context for the language model.
func (t *Table) Describe() string {
	mappings := MapColumns(t)

	var b strings.Builder
	fmt.Fprintf(&b, "Spreadsheet with %d rows and %d columns.", len(t.Rows), len(t.Columns))
	fmt.Fprintf(&b, " Columns: %s.", strings.Join(t.Columns, ", "))

	if len(mappings) > 0 {
		concepts := make([]string, 0, len(mappings))
		for concept := range mappings {
			concepts = append(concepts, string(concept))
		}

		sort.Strings(concepts)
		fmt.Fprintf(&b, " Detected business fields: %s.", strings.Join(concepts, ", "))
	}

	return b.String()
}

// RawText renders a bounded plain-text sample of the table (header plus the
// first rows, tab-separated) for language-model prompts.
func (t *Table) RawText() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Columns, "\t"))
	b.WriteByte('\n')

	limit := len(t.Rows)
	if limit > rawTextRowLimit {
		limit = rawTextRowLimit
	}

	for _, row := range t.Rows[:limit] {
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = formatCell(row[col])
		}

		b.WriteString(strings.Join(cells, "\t"))
		b.WriteByte('\n')
	}

	if len(t.Rows) > limit {
		fmt.Fprintf(&b, "... (%d more rows)\n", len(t.Rows)-limit)
	}

	return b.String()
}

// CellString returns the row's value for a column as a trimmed string,
// with ok=false for missing or nil cells.
func CellString(row map[string]any, col string) (string, bool) {
	v, exists := row[col]
	if !exists || v == nil {
		return "", false
	}

	s := strings.TrimSpace(formatCell(v))
	if s == "" {
		return "", false
	}

	return s, true
}

// CellNumber returns the row's value for a column as a float64, accepting
// numeric JSON types and numeric strings. ok=false for missing/non-numeric.
func CellNumber(row map[string]any, col string) (float64, bool) {
	v, exists := row[col]
	if !exists || v == nil {
		return 0, false
	}

	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case json.Number:
		return c.String()
	default:
		return fmt.Sprintf("%v", c)
	}
}
