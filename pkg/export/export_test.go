package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timetable(t *testing.T) *Table {
	table := NewTable("Day", "Start", "Room")
	table.Widths = []float64{2, 1, 3}
	require.NoError(t, table.AddRow("Monday", "09:00", "R101"))
	require.NoError(t, table.AddRow("Tuesday", "10:00", "R102, east wing"))
	return table
}

func TestTableAddRowChecksWidth(t *testing.T) {
	table := NewTable("Day", "Start")
	assert.Error(t, table.AddRow("Monday"))
	assert.Empty(t, table.Rows)
}

func TestTableColumnWidths(t *testing.T) {
	assert.Equal(t, []float64{20, 10, 30}, timetable(t).columnWidths(60))
	assert.Equal(t, []float64{30, 30}, NewTable("a", "b").columnWidths(60))
}

func TestCSVRendererRender(t *testing.T) {
	out, err := NewCSVRenderer(false).Render(timetable(t))
	require.NoError(t, err)
	assert.Equal(t, "Day,Start,Room\nMonday,09:00,R101\nTuesday,10:00,\"R102, east wing\"\n", string(out))

	withBOM, err := NewCSVRenderer(true).Render(timetable(t))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(withBOM, utf8BOM))

	_, err = NewCSVRenderer(false).Render(&Table{})
	assert.Error(t, err)
}

func TestPDFRendererRender(t *testing.T) {
	out, err := NewPDFRenderer().Render(timetable(t), "Timetable")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty, err := NewPDFRenderer().Render(NewTable("Day"), "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, []byte("%PDF")))

	mismatched := NewTable("Day", "Room")
	mismatched.Widths = []float64{1}
	_, err = NewPDFRenderer().Render(mismatched, "")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", f.ContentType())
	assert.Equal(t, "timetable.pdf", f.Filename("timetable"))

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}
