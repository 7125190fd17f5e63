package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Table accumulates rows for a tabular export. Columns are fixed at
// construction so every row carries the same shape.
type Table struct {
	columns []string
	rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(columns ...string) *Table {
	return &Table{columns: columns}
}

// AddRow appends one row. Missing trailing values render as empty cells and
// extra values are dropped.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.columns))
	copy(row, values)
	t.rows = append(t.rows, row)
}

// CSV renders the table as CSV bytes, header row first.
func (t *Table) CSV() ([]byte, error) {
	if len(t.columns) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
