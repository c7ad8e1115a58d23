package tabular

import (
	"errors"
	"strings"
	"testing"

	"github.com/sheetsightai/sheetsight/internal/models"
)

func salesRows() []map[string]any {
	return []map[string]any{
		{"Sales Rep": "Alice", "Total Price": 120.0, "Region": "North", "Order Date": "2025-01-03"},
		{"Sales Rep": "Bob", "Total Price": 80.5, "Region": "South", "Order Date": "2025-01-04"},
		{"Sales Rep": "Alice", "Total Price": 99.0, "Region": "North", "Order Date": "2025-02-01"},
	}
}

func TestNormalize_Valid(t *testing.T) {
	cols := []string{"Sales Rep", "Total Price", "Region", "Order Date"}

	table, err := Normalize(cols, salesRows())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(table.Rows) != 3 || len(table.Columns) != 4 {
		t.Errorf("unexpected shape: %d rows, %d columns", len(table.Rows), len(table.Columns))
	}
}

func TestNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    []map[string]any
	}{
		{"no columns", nil, salesRows()},
		{"no rows", []string{"a"}, nil},
		{"empty column name", []string{"a", ""}, []map[string]any{{"a": 1}}},
		{"unknown row key", []string{"a"}, []map[string]any{{"a": 1, "b": 2}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Normalize(tc.columns, tc.rows); !errors.Is(err, models.ErrMalformedInput) {
				t.Errorf("expected ErrMalformedInput, got %v", err)
			}
		})
	}
}

func TestNormalize_SparseRowsAllowed(t *testing.T) {
	cols := []string{"a", "b"}
	rows := []map[string]any{{"a": 1.0, "b": 2.0}, {"a": 3.0}}

	if _, err := Normalize(cols, rows); err != nil {
		t.Fatalf("rows with missing cells should normalize, got %v", err)
	}
}

func TestMapColumns_CommonSalesSchema(t *testing.T) {
	cols := []string{"Sales Rep", "Total Price", "Region", "Order Date"}

	table, err := Normalize(cols, salesRows())
	if err != nil {
		t.Fatal(err)
	}

	mappings := MapColumns(table)

	want := map[Concept]string{
		ConceptSalesRep: "Sales Rep",
		ConceptRevenue:  "Total Price",
		ConceptRegion:   "Region",
		ConceptDate:     "Order Date",
	}

	for concept, col := range want {
		if mappings[concept] != col {
			t.Errorf("concept %s mapped to %q, want %q", concept, mappings[concept], col)
		}
	}
}

func TestMapColumns_SeparatorVariants(t *testing.T) {
	rows := []map[string]any{
		{"sales_rep": "A", "total-amount": 10.0, "product_name": "Widget"},
	}

	table, err := Normalize([]string{"sales_rep", "total-amount", "product_name"}, rows)
	if err != nil {
		t.Fatal(err)
	}

	mappings := MapColumns(table)

	if mappings[ConceptSalesRep] != "sales_rep" {
		t.Errorf("sales_rep not detected: %v", mappings)
	}

	if mappings[ConceptRevenue] != "total-amount" {
		t.Errorf("total-amount not detected as revenue: %v", mappings)
	}

	if mappings[ConceptProduct] != "product_name" {
		t.Errorf("product_name not detected as product: %v", mappings)
	}
}

func TestMapColumns_RevenueMustBeNumeric(t *testing.T) {
	rows := []map[string]any{
		{"Revenue": "n/a", "Name": "x"},
		{"Revenue": "unknown", "Name": "y"},
	}

	table, err := Normalize([]string{"Revenue", "Name"}, rows)
	if err != nil {
		t.Fatal(err)
	}

	if col, ok := MapColumns(table)[ConceptRevenue]; ok {
		t.Errorf("non-numeric column bound to revenue: %q", col)
	}
}

func TestMapColumns_NumericStringsAccepted(t *testing.T) {
	rows := []map[string]any{
		{"Revenue": "120.50"},
		{"Revenue": "99"},
	}

	table, err := Normalize([]string{"Revenue"}, rows)
	if err != nil {
		t.Fatal(err)
	}

	if MapColumns(table)[ConceptRevenue] != "Revenue" {
		t.Error("numeric-string column should bind to revenue")
	}
}

func TestMatchScore(t *testing.T) {
	tests := []struct {
		column  string
		pattern []string
		above   bool
	}{
		{"sales rep", []string{"sales", "rep"}, true},
		{"Sales_Rep", []string{"sales", "rep"}, true},
		{"revenue", []string{"revenue"}, true},
		{"unrelated", []string{"revenue"}, false},
		{"notes", []string{"sales", "rep"}, false},
	}

	for _, tc := range tests {
		score := matchScore(tc.column, tc.pattern)
		if (score > matchThreshold) != tc.above {
			t.Errorf("matchScore(%q, %v) = %v, above-threshold want %v", tc.column, tc.pattern, score, tc.above)
		}
	}
}

func TestDescribe(t *testing.T) {
	rows := []map[string]any{
		{"Sales Rep": "Alice", "Total Price": 120.0},
		{"Sales Rep": "Bob", "Total Price": 80.5},
	}

	table, err := Normalize([]string{"Sales Rep", "Total Price"}, rows)
	if err != nil {
		t.Fatal(err)
	}

	desc := table.Describe()

	if !strings.Contains(desc, "2 rows") || !strings.Contains(desc, "2 columns") {
		t.Errorf("description missing shape: %s", desc)
	}

	if !strings.Contains(desc, "revenue") || !strings.Contains(desc, "sales_rep") {
		t.Errorf("description missing detected fields: %s", desc)
	}
}

func TestRawText_Bounded(t *testing.T) {
	rows := make([]map[string]any, 50)
	for i := range rows {
		rows[i] = map[string]any{"v": float64(i)}
	}

	table, err := Normalize([]string{"v"}, rows)
	if err != nil {
		t.Fatal(err)
	}

	text := table.RawText()

	lines := strings.Count(text, "\n")
	if lines != rawTextRowLimit+2 {
		t.Errorf("expected header + %d rows + ellipsis, got %d lines", rawTextRowLimit, lines)
	}

	if !strings.Contains(text, "30 more rows") {
		t.Errorf("missing truncation marker: %s", text)
	}
}

func TestCellNumber(t *testing.T) {
	row := map[string]any{"f": 1.5, "s": "2.5", "bad": "x", "nil": nil}

	if v, ok := CellNumber(row, "f"); !ok || v != 1.5 {
		t.Errorf("float cell: got %v, %v", v, ok)
	}

	if v, ok := CellNumber(row, "s"); !ok || v != 2.5 {
		t.Errorf("string cell: got %v, %v", v, ok)
	}

	if _, ok := CellNumber(row, "bad"); ok {
		t.Error("non-numeric string should not parse")
	}

	if _, ok := CellNumber(row, "nil"); ok {
		t.Error("nil cell should not parse")
	}

	if _, ok := CellNumber(row, "missing"); ok {
		t.Error("missing cell should not parse")
	}
}
