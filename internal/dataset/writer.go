package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// defaultSheet is the sheet excelize creates in a new workbook.
const defaultSheet = "Sheet1"

// WriteXLSX writes the dataset to a new workbook at path: the header row
// first, then every data row, with no index column. Cells are written with
// their type and number format. An existing file at path is overwritten.
func WriteXLSX(ds *Dataset, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(defaultSheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	styles := &styleCache{f: f, ids: make(map[Cell]int)}
	if err := writeRow(sw, styles, 1, ds.Headers); err != nil {
		return err
	}
	for i, row := range ds.Rows {
		if err := writeRow(sw, styles, i+2, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	return nil
}

// writeRow writes one row starting at column A. Empty cells are left unset
// so they read back as empty.
func writeRow(sw *excelize.StreamWriter, styles *styleCache, rowNum int, cells []Cell) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}

	row := make([]interface{}, len(cells))
	for i, c := range cells {
		if c.IsEmpty() {
			continue
		}
		if id := styles.id(c); id != 0 {
			row[i] = excelize.Cell{StyleID: id, Value: c.Value}
			continue
		}
		row[i] = c.Value
	}

	if err := sw.SetRow(cell, row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

// styleCache creates one cell style per distinct number format.
type styleCache struct {
	f   *excelize.File
	ids map[Cell]int
}

// id returns the style of c's number format, or 0 for General. A format
// excelize rejects is written as General.
func (sc *styleCache) id(c Cell) int {
	if !c.HasFormat() {
		return 0
	}

	key := Cell{NumFmt: c.NumFmt, CustomNumFmt: c.CustomNumFmt}
	if id, ok := sc.ids[key]; ok {
		return id
	}

	style := &excelize.Style{NumFmt: c.NumFmt}
	if c.CustomNumFmt != "" {
		code := c.CustomNumFmt
		style.CustomNumFmt = &code
	}
	id, err := sc.f.NewStyle(style)
	if err != nil {
		id = 0
	}
	sc.ids[key] = id
	return id
}
