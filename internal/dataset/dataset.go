// =============================================================================
// Column Splitter - Dataset Module
// =============================================================================
//
// This package holds the in-memory tabular representation of a spreadsheet's
// first sheet, along with the readers and writers that move it between disk
// and memory.
//
// SHAPE:
//   A Dataset is a header row plus zero or more data rows. Every row has
//   exactly len(Headers) cells; a missing cell is an explicit empty Cell.
//   Cells keep their type (text, number, boolean) and number format.
//
// LIFECYCLE:
//   Datasets are loaded wholesale and never mutated after load. Slicing
//   produces a new Dataset that shares no row storage with its parent.
//
// =============================================================================

package dataset

import (
	"fmt"
)

// =============================================================================
// DATASET STRUCTURE
// =============================================================================

// Dataset represents the tabular contents of one sheet.
type Dataset struct {
	// Headers contains the column labels from the first row of the sheet.
	// Labels may be empty; a column exists even if it has no label.
	Headers []Cell

	// Rows contains the data rows in sheet order.
	// Each row has exactly len(Headers) values.
	Rows [][]Cell
}

// New builds a Dataset from a header row and data rows, padding every row
// to the widest of the header and the data. Inputs are copied.
func New(headers []Cell, rows [][]Cell) *Dataset {
	width := len(headers)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	ds := &Dataset{
		Headers: padRow(headers, width),
		Rows:    make([][]Cell, len(rows)),
	}
	for i, row := range rows {
		ds.Rows[i] = padRow(row, width)
	}

	return ds
}

// FromStrings builds a Dataset of text cells. Empty strings are empty cells.
func FromStrings(headers []string, rows [][]string) *Dataset {
	cells := make([][]Cell, len(rows))
	for i, row := range rows {
		cells[i] = Texts(row...)
	}
	return New(Texts(headers...), cells)
}

// ColumnCount returns the number of columns.
func (d *Dataset) ColumnCount() int {
	return len(d.Headers)
}

// RowCount returns the number of data rows, excluding the header row.
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

// Slice returns a new Dataset containing the columns [start, end) of every
// row. Row order and column order within the slice are preserved.
//
// PARAMETERS:
//   - start: The first column to include (0-based).
//   - end:   One past the last column to include.
//
// RETURNS:
//   - The column slice.
//   - An error if the range is empty or out of bounds.
func (d *Dataset) Slice(start, end int) (*Dataset, error) {
	if start < 0 || end > len(d.Headers) || start >= end {
		return nil, fmt.Errorf("column range [%d, %d) out of bounds for %d columns", start, end, len(d.Headers))
	}

	out := &Dataset{
		Headers: append([]Cell(nil), d.Headers[start:end]...),
		Rows:    make([][]Cell, len(d.Rows)),
	}
	for i, row := range d.Rows {
		out.Rows[i] = append([]Cell(nil), row[start:end]...)
	}

	return out, nil
}

// Concat joins datasets column-wise, in order. All inputs must have the same
// number of rows. It is the inverse of slicing a dataset into partitions.
func Concat(parts ...*Dataset) (*Dataset, error) {
	if len(parts) == 0 {
		return &Dataset{}, nil
	}

	rowCount := parts[0].RowCount()
	out := &Dataset{Rows: make([][]Cell, rowCount)}

	for i, part := range parts {
		if part.RowCount() != rowCount {
			return nil, fmt.Errorf("part %d has %d rows, expected %d", i+1, part.RowCount(), rowCount)
		}
		out.Headers = append(out.Headers, part.Headers...)
		for r, row := range part.Rows {
			out.Rows[r] = append(out.Rows[r], row...)
		}
	}

	return out, nil
}

// padRow copies row and extends it with empty cells to the given width.
func padRow(row []Cell, width int) []Cell {
	out := make([]Cell, width)
	copy(out, row)
	return out
}
