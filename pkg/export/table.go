package export

import "fmt"

// Table is positional tabular content shared by the CSV and PDF renderers.
type Table struct {
	Columns []string
	// Widths are relative column weights for PDF layout. Empty means equal widths.
	Widths []float64
	Rows   [][]string
}

// NewTable returns a table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// AddRow appends a row. It must have one value per column.
func (t *Table) AddRow(values ...string) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Columns))
	}
	t.Rows = append(t.Rows, values)
	return nil
}

func (t *Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table has no columns")
	}
	if len(t.Widths) != 0 && len(t.Widths) != len(t.Columns) {
		return fmt.Errorf("table has %d widths for %d columns", len(t.Widths), len(t.Columns))
	}
	return nil
}

// columnWidths spreads total across the columns by weight.
func (t *Table) columnWidths(total float64) []float64 {
	out := make([]float64, len(t.Columns))
	if len(t.Widths) == 0 {
		for i := range out {
			out[i] = total / float64(len(out))
		}
		return out
	}
	var sum float64
	for _, w := range t.Widths {
		sum += w
	}
	for i, w := range t.Widths {
		out[i] = total * w / sum
	}
	return out
}
