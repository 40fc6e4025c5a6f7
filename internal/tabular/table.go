// Package tabular holds the row/column tables read from CSV and XLSX inputs
// and written as CSV or XLSX outputs.
package tabular

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnknownColumn is returned when a required column is missing
var ErrUnknownColumn = errors.New("unknown column")

// Table is an ordered set of string rows under a header
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// New creates an empty table with the given header
func New(name string, columns ...string) *Table {
	t := &Table{Name: name, Columns: columns}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the header contains col
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Col returns the position of col, or -1
func (t *Table) Col(col string) int {
	if i, ok := t.index[col]; ok {
		return i
	}
	return -1
}

// Require checks that every named column exists
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w in %s: %s", ErrUnknownColumn, t.Name, strings.Join(missing, ", "))
	}
	return nil
}

// ColumnsWithPrefix returns header names starting with prefix, in header order
func (t *Table) ColumnsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range t.Columns {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Append adds a row. Short rows are padded and long rows are rejected.
func (t *Table) Append(values ...string) error {
	if len(values) > len(t.Columns) {
		return fmt.Errorf("row has %d values for %d columns in %s", len(values), len(t.Columns), t.Name)
	}
	row := make([]string, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
	return nil
}

// Row returns accessor for row i
func (t *Table) Row(i int) Row {
	return Row{t: t, values: t.Rows[i]}
}

// Each calls fn for every row in order
func (t *Table) Each(fn func(i int, r Row) error) error {
	for i := range t.Rows {
		if err := fn(i, t.Row(i)); err != nil {
			return err
		}
	}
	return nil
}

// Row gives typed access to one table row by column name
type Row struct {
	t      *Table
	values []string
}

// String returns the trimmed cell, or "" for a missing column
func (r Row) String(col string) string {
	i, ok := r.t.index[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

// At returns the trimmed cell at a 0-based position, or "" past the row end
func (r Row) At(i int) string {
	if i < 0 || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

// Float parses a numeric cell. Empty, NaN and unparsable cells report false.
// Thousands separators are ignored.
func (r Row) Float(col string) (float64, bool) {
	return ParseFloat(r.String(col))
}

// Int parses an integer cell, accepting values written as floats
func (r Row) Int(col string) (int, bool) {
	v, ok := r.Float(col)
	if !ok {
		return 0, false
	}
	return int(math.Round(v)), true
}

// ParseFloat parses a table cell as a number
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// FormatFloat renders a number for output cells; NaN becomes empty
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
