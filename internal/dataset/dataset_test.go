package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNew_PadsRowsToWidestRow(t *testing.T) {
	ds := FromStrings([]string{"a", "b"}, [][]string{{"1"}, {"1", "2", "3"}})

	assert.Equal(t, []Cell{Text("a"), Text("b"), {}}, ds.Headers)
	assert.Equal(t, [][]Cell{
		{Text("1"), {}, {}},
		{Text("1"), Text("2"), Text("3")},
	}, ds.Rows)
	assert.Equal(t, 3, ds.ColumnCount())
	assert.Equal(t, 2, ds.RowCount())
}

func TestSlice(t *testing.T) {
	ds := FromStrings([]string{"a", "b", "c", "d"}, [][]string{
		{"1", "2", "3", "4"},
		{"5", "6", "7", "8"},
	})

	part, err := ds.Slice(1, 3)
	require.NoError(t, err)
	assert.Equal(t, Texts("b", "c"), part.Headers)
	assert.Equal(t, [][]Cell{Texts("2", "3"), Texts("6", "7")}, part.Rows)

	// The slice does not share storage with the original.
	part.Rows[0][0] = Text("changed")
	assert.Equal(t, Text("2"), ds.Rows[0][1])

	for _, r := range [][2]int{{-1, 2}, {0, 5}, {2, 2}, {3, 1}} {
		_, err := ds.Slice(r[0], r[1])
		assert.Error(t, err, "range %v", r)
	}
}

func TestConcat_ReversesSlice(t *testing.T) {
	ds := New(Texts("a", "b", "c"), [][]Cell{
		{Int(1), Number(2.5).WithFormat(10), Bool(true)},
		{Text("x"), {}, Int(45356).WithFormat(14)},
	})

	left, err := ds.Slice(0, 2)
	require.NoError(t, err)
	right, err := ds.Slice(2, 3)
	require.NoError(t, err)

	joined, err := Concat(left, right)
	require.NoError(t, err)
	assert.Equal(t, ds, joined)

	short := FromStrings([]string{"x"}, nil)
	_, err = Concat(left, short)
	assert.Error(t, err)
}

func TestCell_IsDate(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		date bool
	}{
		{"general", Int(45356), false},
		{"percent", Number(0.125).WithFormat(10), false},
		{"short date", Int(45356).WithFormat(14), true},
		{"date time", Number(45356.5).WithFormat(22), true},
		{"time", Number(0.25).WithFormat(20), true},
		{"custom date", Int(45356).WithCustomFormat("yyyy-mm-dd"), true},
		{"elapsed hours", Number(1.5).WithCustomFormat("[h]:mm"), true},
		{"currency", Number(9.99).WithCustomFormat(`[$€-2] #,##0.00;[Red]-#,##0.00`), false},
		{"quoted letters", Int(5).WithCustomFormat(`0 "days"`), false},
		{"escaped letter", Int(5).WithCustomFormat(`0\d`), false},
		{"text cell", Text("2024-03-05").WithFormat(14), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.date, tt.cell.IsDate())
		})
	}
}

func TestCell_Time(t *testing.T) {
	got, err := Int(45356).WithFormat(14).Time()
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)), "got %v", got)

	_, err = Int(45356).Time()
	assert.Error(t, err)
}

func TestCell_String(t *testing.T) {
	assert.Equal(t, "", Cell{}.String())
	assert.Equal(t, "abc", Text("abc").String())
	assert.Equal(t, "12345678901234567", Int(12345678901234567).String())
	assert.Equal(t, "0.3", Number(0.3).String())
	assert.Equal(t, "TRUE", Bool(true).String())
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	f.SetCellValue(sheet, "A1", "Name")
	f.SetCellValue(sheet, "B1", "Age")
	f.SetCellValue(sheet, "C1", "City")
	f.SetCellValue(sheet, "A2", "alice")
	f.SetCellValue(sheet, "B2", 30)
	f.SetCellValue(sheet, "A3", "bob")
	f.SetCellValue(sheet, "C3", "Paris")

	path := filepath.Join(t.TempDir(), "people.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Texts("Name", "Age", "City"), ds.Headers)
	assert.Equal(t, [][]Cell{
		{Text("alice"), Int(30), {}},
		{Text("bob"), {}, Text("Paris")},
	}, ds.Rows)
}

// typedWorkbook saves a sheet holding one cell of every value kind and
// returns the cells Load is expected to produce for its data row.
func typedWorkbook(t *testing.T, path string) []Cell {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	headers := []string{"int", "percent", "date", "long", "float", "flag", "stamp", "text"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}

	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	require.NoError(t, err)
	date, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	stampFmt := "dd/mm/yyyy hh:mm"
	stamp, err := f.NewStyle(&excelize.Style{CustomNumFmt: &stampFmt})
	require.NoError(t, err)

	require.NoError(t, f.SetCellValue(sheet, "A2", 42))
	require.NoError(t, f.SetCellValue(sheet, "B2", 0.125))
	require.NoError(t, f.SetCellStyle(sheet, "B2", "B2", percent))
	require.NoError(t, f.SetCellValue(sheet, "C2", 45356))
	require.NoError(t, f.SetCellStyle(sheet, "C2", "C2", date))
	require.NoError(t, f.SetCellValue(sheet, "D2", int64(12345678901234567)))
	require.NoError(t, f.SetCellValue(sheet, "E2", 0.3))
	require.NoError(t, f.SetCellValue(sheet, "F2", true))
	require.NoError(t, f.SetCellValue(sheet, "G2", 45356.5))
	require.NoError(t, f.SetCellStyle(sheet, "G2", "G2", stamp))
	require.NoError(t, f.SetCellValue(sheet, "H2", "00123"))

	require.NoError(t, f.SaveAs(path))

	return []Cell{
		Int(42),
		Number(0.125).WithFormat(10),
		Int(45356).WithFormat(14),
		Int(12345678901234567),
		Number(0.3),
		Bool(true),
		Number(45356.5).WithCustomFormat(stampFmt),
		Text("00123"),
	}
}

func TestLoad_XLSXKeepsCellTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typed.xlsx")
	expected := typedWorkbook(t, path)

	ds, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, ds.RowCount())
	assert.Equal(t, expected, ds.Rows[0])

	when, err := ds.Rows[0][2].Time()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", when.Format("2006-01-02"))
}

func TestLoad_XLSX1904DatesAreShifted(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	on := true
	require.NoError(t, f.SetWorkbookProps(&excelize.WorkbookPropsOptions{Date1904: &on}))
	date, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "when"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", 43894))
	require.NoError(t, f.SetCellStyle("Sheet1", "A2", "A2", date))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "count"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 43894))

	path := filepath.Join(t.TempDir(), "mac.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Int(45356).WithFormat(14), ds.Rows[0][0])
	assert.Equal(t, Int(43894), ds.Rows[0][1])
}

func TestLoad_FirstSheetOnly(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetCellValue("Sheet1", "A1", "first")
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	f.SetCellValue("Other", "A1", "second")
	f.SetCellValue("Other", "B1", "ignored")

	path := filepath.Join(t.TempDir(), "multi.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Texts("first"), ds.Headers)
	assert.Empty(t, ds.Rows)
}

func TestLoad_EmptyWorkbookHasNoColumns(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.ColumnCount())
}

func TestLoad_XLS(t *testing.T) {
	ds, err := Load(filepath.Join("testdata", "people.xls"))
	require.NoError(t, err)

	// The fourth row is wider than the header, so every row gains a column.
	assert.Equal(t, []Cell{Text("id"), Text("name"), Text("score"), {}}, ds.Headers)
	assert.Equal(t, [][]Cell{
		{Int(42), Text("alice"), Number(3.5), {}},
		// The sheet stores nothing for this row.
		{{}, {}, {}, {}},
		// Starts at column B; the leading zeros keep the value text.
		{{}, Text("007"), Number(12.25), {}},
		{Int(7), Text("bob"), Number(-1.5), Text("extra")},
	}, ds.Rows)
}

func TestLoad_XLSErrors(t *testing.T) {
	dir := t.TempDir()

	tests := map[string][]byte{
		"empty.xls":   nil,
		"garbage.xls": []byte("not a compound document"),
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, content, 0644))

			_, err := Load(path)
			assert.True(t, errors.Is(err, ErrInvalidFormat), "got %v", err)

			var formatErr *FormatError
			require.True(t, errors.As(err, &formatErr))
			assert.Equal(t, "xls", formatErr.Format)
		})
	}

	t.Run("no workbook stream", func(t *testing.T) {
		_, err := Load(filepath.Join("testdata", "no_workbook.xls"))
		assert.True(t, errors.Is(err, ErrInvalidFormat), "got %v", err)
	})
}

func TestXLSCell(t *testing.T) {
	tests := map[string]Cell{
		"":                     {},
		"FormulaCol":           {},
		"42":                   Int(42),
		"-3":                   Int(-3),
		"0.125":                Number(0.125),
		"007":                  Text("007"),
		"1e3":                  Text("1e3"),
		"+5":                   Text("+5"),
		"2024-03-05T00:00:00Z": Int(45356).WithFormat(14),
		"2024-03-05T12:00:00Z": Number(45356.5).WithFormat(22),
		"hello":                Text("hello"),
	}

	for in, expected := range tests {
		assert.Equal(t, expected, xlsCell(in), in)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.xlsx"))
	assert.True(t, errors.Is(err, ErrFileNotFound), "got %v", err)
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)

	csvPath := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b\n1,2\n"), 0644))
	_, err = Load(csvPath)
	assert.True(t, errors.Is(err, ErrInvalidFormat), "got %v", err)

	garbage := filepath.Join(dir, "garbage.xlsx")
	require.NoError(t, os.WriteFile(garbage, []byte("not a zip archive"), 0644))
	_, err = Load(garbage)
	assert.True(t, errors.Is(err, ErrInvalidFormat), "got %v", err)

	var formatErr *FormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, garbage, formatErr.Path)
	assert.Equal(t, "xlsx", formatErr.Format)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("book.xlsx"))
	assert.True(t, IsSupported("BOOK.XLS"))
	assert.True(t, IsSupported("macro.xlsm"))
	assert.False(t, IsSupported("data.csv"))
	assert.False(t, IsSupported("xlsx"))
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	ds := FromStrings([]string{"id", "", "note"}, [][]string{
		{"1", "x", "first"},
		{"", "", "blank id"},
		{"3", "z", ""},
	})

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(ds, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ds, got)
}

func TestWriteXLSX_KeepsCellTypes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "typed.xlsx")
	expected := typedWorkbook(t, src)

	ds, err := Load(src)
	require.NoError(t, err)

	out := filepath.Join(dir, "copy.xlsx")
	require.NoError(t, WriteXLSX(ds, out))

	got, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, ds, got)
	assert.Equal(t, expected, got.Rows[0])

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	// Numbers are stored as numbers, not as their display text.
	for _, cell := range []string{"A2", "B2", "C2", "D2", "E2", "G2"} {
		typ, err := f.GetCellType("Sheet1", cell)
		require.NoError(t, err)
		assert.Contains(t, []excelize.CellType{excelize.CellTypeUnset, excelize.CellTypeNumber}, typ, cell)
	}
	typ, err := f.GetCellType("Sheet1", "F2")
	require.NoError(t, err)
	assert.Equal(t, excelize.CellTypeBool, typ)

	raw := func(cell string) string {
		v, err := f.GetCellValue("Sheet1", cell, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "0.125", raw("B2"))
	assert.Equal(t, "45356", raw("C2"))
	assert.Equal(t, "12345678901234567", raw("D2"))
	assert.Equal(t, "0.3", raw("E2"))

	// The number format travels with the value.
	shown, err := f.GetCellValue("Sheet1", "B2")
	require.NoError(t, err)
	assert.Equal(t, "12.50%", shown)

	styleID, err := f.GetCellStyle("Sheet1", "C2")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	assert.Equal(t, 14, style.NumFmt)
}

func TestWriteXLSX_BadDirectory(t *testing.T) {
	ds := FromStrings([]string{"a"}, nil)
	err := WriteXLSX(ds, filepath.Join(t.TempDir(), "missing", "out.xlsx"))
	assert.Error(t, err)
}
