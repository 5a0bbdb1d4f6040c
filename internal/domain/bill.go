package domain

import (
	"fmt"
	"strings"

	"github.com/dvloznov/ramp-bills/internal/schema"
)

// Record is one raw bill object as returned by the Ramp API. Numbers are
// kept as json.Number until they are cast against the schema.
type Record = map[string]any

// BillTable is the shaped, typed projection of a batch of bill records.
// Every cell holds a string, a float64, or nil (NULL), matching the type of
// the column at the same index.
type BillTable struct {
	Columns []schema.Column
	Rows    [][]any
}

// ColumnIndex returns the position of the named column, or -1.
func (t *BillTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row i for the named column.
func (t *BillTable) Value(i int, column string) (any, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return nil, false
	}
	return t.Rows[i][idx], true
}

// Preview renders up to n rows as tab separated text for run logs.
func (t *BillTable) Preview(n int) string {
	var b strings.Builder
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	b.WriteString(strings.Join(names, "\t"))
	for i, row := range t.Rows {
		if i >= n {
			fmt.Fprintf(&b, "\n... %d more rows", len(t.Rows)-n)
			break
		}
		b.WriteByte('\n')
		for j, cell := range row {
			if j > 0 {
				b.WriteByte('\t')
			}
			if cell == nil {
				b.WriteString("<NA>")
				continue
			}
			fmt.Fprintf(&b, "%v", cell)
		}
	}
	return b.String()
}
