package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// utf8BOM lets spreadsheet tools detect the encoding of non-ASCII names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVRenderer writes a Table as RFC 4180 CSV.
type CSVRenderer struct {
	bom bool
}

// NewCSVRenderer builds a CSV renderer. withBOM prefixes a UTF-8 byte order mark.
func NewCSVRenderer(withBOM bool) *CSVRenderer {
	return &CSVRenderer{bom: withBOM}
}

// Render encodes the header row followed by every table row.
func (r *CSVRenderer) Render(table *Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if r.bom {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
