// =============================================================================
// Column Splitter - Spreadsheet Reader
// =============================================================================
//
// This module loads the first sheet of a spreadsheet file into a Dataset.
//
// SUPPORTED FORMATS:
//   | Extension     | Library                       |
//   |---------------|-------------------------------|
//   | .xlsx, .xlsm  | github.com/xuri/excelize/v2   |
//   | .xls          | github.com/extrame/xls        |
//
// LAYOUT:
//   Row 1 is the header row. Every following row is data. Rows narrower than
//   the widest row are padded with empty cells. Trailing rows that contain no
//   values at all are dropped.
//
// CELL TYPES:
//   Cells keep their type. Numbers keep their number format, so dates and
//   percentages survive a read and write. Integral numbers are kept exactly.
//
// LIMITATIONS:
//   Formulas are read as their cached value. Styles other than the number
//   format, merged cells and additional sheets are ignored. The BIFF reader
//   only exposes formatted text, so .xls number formats are lost. Dates with
//   a built-in format arrive as "yyyy.mm" numbers, and .xls formula cells
//   are read as empty.
//
// =============================================================================

package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// xlsCharset is passed to the BIFF reader for non-unicode string records.
const xlsCharset = "utf-8"

// xlsFormulaPlaceholder is what the BIFF reader returns for every formula
// cell in place of its cached value.
const xlsFormulaPlaceholder = "FormulaCol"

// Load reads the first sheet of the spreadsheet at path.
//
// RETURNS:
//   - The loaded dataset.
//   - ErrFileNotFound if the file does not exist or cannot be opened.
//   - ErrInvalidFormat (inside a *FormatError) if the extension is not
//     supported or the contents cannot be parsed.
func Load(path string) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFileNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return loadXLSX(path)
	case ".xls":
		return loadXLS(path)
	default:
		return nil, &FormatError{Path: path, Format: strings.TrimPrefix(ext, "."), Err: errors.New("unsupported file extension")}
	}
}

// IsSupported reports whether Load can read a file with the given name.
func IsSupported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xls":
		return true
	}
	return false
}

// =============================================================================
// XLSX
// =============================================================================

// loadXLSX reads an Office Open XML workbook. Values come from excelize as
// stored, and each cell's storage type and number format decide how the
// value is typed.
func loadXLSX(path string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &FormatError{Path: path, Format: "xlsx", Err: err}
	}
	defer f.Close()

	// Only the first sheet is considered.
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, &FormatError{Path: path, Format: "xlsx", Err: errors.New("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &FormatError{Path: path, Format: "xlsx", Err: fmt.Errorf("failed to read rows of sheet %q: %w", sheetName, err)}
	}

	meta, err := readSheetMeta(path, sheetName)
	if err != nil {
		return nil, &FormatError{Path: path, Format: "xlsx", Err: fmt.Errorf("failed to read cell types of sheet %q: %w", sheetName, err)}
	}

	var date1904 bool
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	formats := newFormatCache(f)
	cells := make([][]Cell, len(rows))
	for r, row := range rows {
		cells[r] = make([]Cell, len(row))
		for c, raw := range row {
			cells[r][c] = typedCell(raw, meta.at(r+1, c+1), formats, date1904)
		}
	}

	return fromRows(cells), nil
}

// typedCell converts a raw stored value to a Cell.
func typedCell(raw string, m cellMeta, formats *formatCache, date1904 bool) Cell {
	if raw == "" {
		return Cell{}
	}

	switch m.kind {
	case kindString:
		return Text(raw)
	case kindBool:
		return Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case kindDate:
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return dateCell(t)
			}
		}
		return Text(raw)
	}

	c, ok := parseNumber(raw)
	if !ok {
		return Text(raw)
	}
	c = formats.apply(c, int(m.style))
	if date1904 && c.IsDate() {
		c = c.shiftDays(date1904Offset)
	}
	return c
}

// date1904Offset is the number of days between the 1900 and 1904 date
// systems.
const date1904Offset = 1462

// isoLayouts are the timestamp forms of t="d" cells.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseNumber reads an integral value exactly and anything else as a float.
func parseNumber(raw string) (Cell, bool) {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Int(i), true
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Number(f), true
	}
	return Cell{}, false
}

// formatCache resolves cell style indexes to number formats.
type formatCache struct {
	f       *excelize.File
	formats map[int]Cell
}

func newFormatCache(f *excelize.File) *formatCache {
	return &formatCache{f: f, formats: map[int]Cell{0: {}}}
}

// apply copies the number format of the style to c. Unknown styles leave c
// in General format.
func (fc *formatCache) apply(c Cell, style int) Cell {
	format, ok := fc.formats[style]
	if !ok {
		if st, err := fc.f.GetStyle(style); err == nil && st != nil {
			format.NumFmt = st.NumFmt
			if st.CustomNumFmt != nil {
				format.CustomNumFmt = *st.CustomNumFmt
			}
		}
		fc.formats[style] = format
	}

	c.NumFmt, c.CustomNumFmt = format.NumFmt, format.CustomNumFmt
	return c
}

// =============================================================================
// XLS
// =============================================================================

// loadXLS reads a legacy BIFF workbook. The BIFF reader panics on some
// malformed inputs, so panics are turned into format errors.
func loadXLS(path string) (ds *Dataset, err error) {
	defer func() {
		if r := recover(); r != nil {
			ds = nil
			err = &FormatError{Path: path, Format: "xls", Err: fmt.Errorf("corrupt workbook: %v", r)}
		}
	}()

	wb, err := xls.Open(path, xlsCharset)
	if err != nil {
		return nil, &FormatError{Path: path, Format: "xls", Err: err}
	}
	if wb == nil {
		return nil, &FormatError{Path: path, Format: "xls", Err: errors.New("no workbook stream")}
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &FormatError{Path: path, Format: "xls", Err: errors.New("workbook has no sheets")}
	}

	var rows [][]Cell
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}

		// Column positions are absolute, so leading gaps stay empty.
		cells := make([]Cell, row.LastCol())
		for col := row.FirstCol(); col < row.LastCol(); col++ {
			cells[col] = xlsCell(row.Col(col))
		}
		rows = append(rows, trimTrailingEmpty(cells))
	}

	return fromRows(rows), nil
}

// sheetRow returns row i of the sheet, or nil if the sheet stores nothing
// for it. The BIFF reader panics on rows it does not know.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// xlsCell types a value formatted by the BIFF reader. Numbers arrive in
// their shortest decimal form, so text that formats back to itself is a
// number; text such as "007" or "1e3" stays text. Cells with a custom date
// format arrive as RFC 3339 timestamps.
func xlsCell(s string) Cell {
	if s == "" || s == xlsFormulaPlaceholder {
		return Cell{}
	}
	if c, ok := parseNumber(s); ok && c.String() == s {
		return c
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return dateCell(t)
	}
	return Text(s)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// fromRows converts sheet rows into a Dataset. The first row is the header
// row.
func fromRows(rows [][]Cell) *Dataset {
	rows = trimTrailingEmptyRows(rows)
	if len(rows) == 0 {
		return &Dataset{}
	}
	return New(rows[0], rows[1:])
}

// trimTrailingEmptyRows drops rows at the end of the sheet that contain no
// values.
func trimTrailingEmptyRows(rows [][]Cell) [][]Cell {
	end := len(rows)
	for end > 0 && isRowEmpty(rows[end-1]) {
		end--
	}
	return rows[:end]
}

// trimTrailingEmpty drops empty cells at the end of a row.
func trimTrailingEmpty(row []Cell) []Cell {
	end := len(row)
	for end > 0 && row[end-1].IsEmpty() {
		end--
	}
	return row[:end]
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []Cell) bool {
	for _, cell := range row {
		if !cell.IsEmpty() {
			return false
		}
	}
	return true
}
