package splitter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/xlsx-column-splitter/internal/dataset"
	"github.com/ginjaninja78/xlsx-column-splitter/pkg/utils"
)

// writeWorkbook saves a sheet with the given number of columns and data rows
// and returns the dataset it contains. Columns cycle through text, integer,
// percentage and date cells.
func writeWorkbook(t *testing.T, path string, columns, rows int) *dataset.Dataset {
	t.Helper()

	headers := make([]dataset.Cell, columns)
	for c := range headers {
		headers[c] = dataset.Text(fmt.Sprintf("col%d", c+1))
	}
	data := make([][]dataset.Cell, rows)
	for r := range data {
		data[r] = make([]dataset.Cell, columns)
		for c := range data[r] {
			data[r][c] = sampleCell(r+1, c+1)
		}
	}

	ds := dataset.New(headers, data)
	require.NoError(t, dataset.WriteXLSX(ds, path))
	return ds
}

func sampleCell(row, col int) dataset.Cell {
	switch col % 4 {
	case 1:
		return dataset.Text(fmt.Sprintf("r%dc%d", row, col))
	case 2:
		return dataset.Int(int64(row*1000 + col))
	case 3:
		return dataset.Number(float64(row) + 0.25).WithFormat(10)
	default:
		return dataset.Int(int64(45356 + row)).WithFormat(14)
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		total, limit int
		expected     []ColumnRange
	}{
		{3, 4900, []ColumnRange{{0, 3}}},
		{10000, 4900, []ColumnRange{{0, 4900}, {4900, 9800}, {9800, 10000}}},
		{8, 4, []ColumnRange{{0, 4}, {4, 8}}},
		{5, 1, []ColumnRange{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}}},
		{0, 4900, nil},
		{5, 0, nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.total, tt.limit), func(t *testing.T) {
			assert.Equal(t, tt.expected, Plan(tt.total, tt.limit))
		})
	}
}

func TestPlan_CoversEveryColumnOnce(t *testing.T) {
	for total := 1; total <= 40; total++ {
		for limit := 1; limit <= 12; limit++ {
			ranges := Plan(total, limit)
			require.Len(t, ranges, (total+limit-1)/limit)

			next := 0
			for _, r := range ranges {
				assert.Equal(t, next, r.Start)
				assert.LessOrEqual(t, r.Width(), limit)
				assert.Greater(t, r.Width(), 0)
				next = r.End
			}
			assert.Equal(t, total, next)
		}
	}
}

func TestPartFilename(t *testing.T) {
	assert.Equal(t, "split_part_1_cols_1_to_3.xlsx", PartFilename(1, ColumnRange{0, 3}))
	assert.Equal(t, "split_part_2_cols_4901_to_9800.xlsx", PartFilename(2, ColumnRange{4900, 9800}))
	assert.Equal(t, "split_part_3_cols_9801_to_10000.xlsx", PartFilename(3, ColumnRange{9800, 10000}))
}

func TestSplit_SinglePart(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "input.xlsx")
	writeWorkbook(t, src, 3, 5)

	out := filepath.Join(dir, "out")
	descs, err := SplitFile(src, out, DefaultMaxColumns)
	require.NoError(t, err)
	require.Len(t, descs, 1)

	d := descs[0]
	assert.Equal(t, "split_part_1_cols_1_to_3.xlsx", d.Filename)
	assert.Equal(t, filepath.Join(out, d.Filename), d.Path)
	assert.Equal(t, 1, d.StartCol)
	assert.Equal(t, 3, d.EndCol)
	assert.Equal(t, 3, d.ColumnCount)
	assert.Equal(t, 5, d.RowCount)
	assert.Greater(t, d.SizeBytes, int64(0))

	// The source file is left in place.
	_, err = os.Stat(src)
	assert.NoError(t, err)
}

func TestSplit_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wide.xlsx")
	original := writeWorkbook(t, src, 10, 7)

	reg := prometheus.NewRegistry()
	s := New(nil, reg)

	res, err := s.Split(context.Background(), Request{SourcePath: src, OutputDir: filepath.Join(dir, "out"), MaxColumns: 4})
	require.NoError(t, err)
	require.Empty(t, res.Failures)
	assert.Equal(t, 10, res.TotalColumns)
	assert.Equal(t, 7, res.TotalRows)

	expected := []string{
		"split_part_1_cols_1_to_4.xlsx",
		"split_part_2_cols_5_to_8.xlsx",
		"split_part_3_cols_9_to_10.xlsx",
	}
	require.Len(t, res.Descriptors, len(expected))

	var parts []*dataset.Dataset
	for i, d := range res.Descriptors {
		assert.Equal(t, expected[i], d.Filename)
		assert.Equal(t, 7, d.RowCount)

		part, err := dataset.Load(d.Path)
		require.NoError(t, err)
		assert.Equal(t, d.ColumnCount, part.ColumnCount())
		assert.Equal(t, 7, part.RowCount())
		parts = append(parts, part)
	}

	joined, err := dataset.Concat(parts...)
	require.NoError(t, err)
	assert.Equal(t, original, joined)

	assert.Equal(t, 3.0, testutil.ToFloat64(s.metrics.partsWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.splits.WithLabelValues("success")))
}

func TestSplit_KeepsCellValuesAndFormats(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "typed.xlsx")

	f := excelize.NewFile()
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	require.NoError(t, err)
	date, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	for cell, v := range map[string]interface{}{
		"A1": "int", "B1": "percent", "C1": "date", "D1": "long", "E1": "float",
		"A2": 42, "B2": 0.125, "C2": 45356, "D2": int64(12345678901234567), "E2": 0.3,
	} {
		require.NoError(t, f.SetCellValue("Sheet1", cell, v))
	}
	require.NoError(t, f.SetCellStyle("Sheet1", "B2", "B2", percent))
	require.NoError(t, f.SetCellStyle("Sheet1", "C2", "C2", date))
	require.NoError(t, f.SaveAs(src))
	require.NoError(t, f.Close())

	descs, err := SplitFile(src, filepath.Join(dir, "out"), 2)
	require.NoError(t, err)
	require.Len(t, descs, 3)

	// Each part holds its columns starting at A.
	expected := []map[string]string{
		{"A2": "42", "B2": "0.125"},
		{"A2": "45356", "B2": "12345678901234567"},
		{"A2": "0.3"},
	}
	for i, d := range descs {
		out, err := excelize.OpenFile(d.Path)
		require.NoError(t, err)

		for cell, want := range expected[i] {
			typ, err := out.GetCellType("Sheet1", cell)
			require.NoError(t, err)
			assert.Contains(t, []excelize.CellType{excelize.CellTypeUnset, excelize.CellTypeNumber}, typ, "%s %s", d.Filename, cell)

			raw, err := out.GetCellValue("Sheet1", cell, excelize.Options{RawCellValue: true})
			require.NoError(t, err)
			assert.Equal(t, want, raw, "%s %s", d.Filename, cell)
		}

		switch i {
		case 0:
			shown, err := out.GetCellValue("Sheet1", "B2")
			require.NoError(t, err)
			assert.Equal(t, "12.50%", shown)
		case 1:
			styleID, err := out.GetCellStyle("Sheet1", "A2")
			require.NoError(t, err)
			style, err := out.GetStyle(styleID)
			require.NoError(t, err)
			assert.Equal(t, 14, style.NumFmt)
		}
		require.NoError(t, out.Close())
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(src))
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "out")
	_, err := SplitFile(src, out, DefaultMaxColumns)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyInput), "got %v", err)
	assert.Contains(t, err.Error(), src)

	// Nothing is written, not even the output directory.
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestSplit_InputErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := SplitFile(filepath.Join(dir, "missing.xlsx"), dir, 10)
	assert.True(t, errors.Is(err, ErrFileNotFound), "got %v", err)

	csv := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(csv, []byte("a,b\n"), 0644))
	_, err = SplitFile(csv, dir, 10)
	assert.True(t, errors.Is(err, ErrInvalidFormat), "got %v", err)

	src := filepath.Join(dir, "input.xlsx")
	writeWorkbook(t, src, 2, 1)
	for _, limit := range []int{0, -3} {
		_, err = SplitFile(src, dir, limit)
		assert.True(t, errors.Is(err, ErrInvalidRequest), "got %v", err)
	}
}

func TestSplit_OutputDirIsAFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "input.xlsx")
	writeWorkbook(t, src, 2, 1)

	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := SplitFile(src, blocker, 10)
	assert.True(t, errors.Is(err, ErrDirectoryAccess), "got %v", err)
	assert.True(t, errors.Is(err, syscall.ENOTDIR), "got %v", err)
	assert.Contains(t, err.Error(), blocker)
}

func TestErrDirectoryAccess_SharedWithFileManager(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := utils.ClearDirectory(blocker)
	assert.True(t, errors.Is(err, ErrDirectoryAccess), "got %v", err)
}

func TestSplit_RemovesPartialFileOnWriteError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "input.xlsx")
	writeWorkbook(t, src, 4, 1)

	s := New(nil, nil)
	s.write = func(ds *dataset.Dataset, path string) error {
		if filepath.Base(path) == "split_part_2_cols_3_to_4.xlsx" {
			// Half a file, then the disk fills up.
			if err := os.WriteFile(path, []byte("PK"), 0644); err != nil {
				return err
			}
			return errors.New("disk full")
		}
		return dataset.WriteXLSX(ds, path)
	}

	out := filepath.Join(dir, "out")
	res, err := s.Split(context.Background(), Request{SourcePath: src, OutputDir: out, MaxColumns: 2})
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)

	_, err = os.Stat(filepath.Join(out, "split_part_2_cols_3_to_4.xlsx"))
	assert.True(t, os.IsNotExist(err), "got %v", err)

	names, err := utils.NewFileManager(dir, out).ListOutputFiles(OutputExtension)
	require.NoError(t, err)
	assert.Equal(t, []string{"split_part_1_cols_1_to_2.xlsx"}, names)
}

func TestSplit_PartialFailureContinues(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "input.xlsx")
	writeWorkbook(t, src, 6, 2)

	s := New(nil, nil)
	s.write = func(ds *dataset.Dataset, path string) error {
		if filepath.Base(path) == "split_part_2_cols_3_to_4.xlsx" {
			return errors.New("disk full")
		}
		return dataset.WriteXLSX(ds, path)
	}

	res, err := s.Split(context.Background(), Request{SourcePath: src, OutputDir: filepath.Join(dir, "out"), MaxColumns: 2})
	require.NoError(t, err)

	require.Len(t, res.Descriptors, 2)
	assert.Equal(t, "split_part_1_cols_1_to_2.xlsx", res.Descriptors[0].Filename)
	assert.Equal(t, "split_part_3_cols_5_to_6.xlsx", res.Descriptors[1].Filename)

	require.Len(t, res.Failures, 1)
	pe := res.Failures[0]
	assert.Equal(t, 2, pe.Part)
	assert.Equal(t, 3, pe.StartCol)
	assert.Equal(t, 4, pe.EndCol)
	assert.True(t, errors.Is(pe, ErrWriteFailure))
	assert.Contains(t, pe.Error(), "columns 3 to 4")

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.partFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.splits.WithLabelValues("partial")))
}

func TestSplit_AllPartsFail(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "input.xlsx")
	writeWorkbook(t, src, 4, 1)

	s := New(nil, nil)
	s.write = func(ds *dataset.Dataset, path string) error {
		// Leaves an empty file behind, which must not count as written.
		return os.WriteFile(path, nil, 0644)
	}

	out := filepath.Join(dir, "out")
	_, err := s.Split(context.Background(), Request{SourcePath: src, OutputDir: out, MaxColumns: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWriteFailure), "got %v", err)

	var pe *PartError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Part)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.splits.WithLabelValues("failure")))
}

func TestSplit_IgnoresStaleFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "input.xlsx")
	writeWorkbook(t, src, 3, 1)

	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(out, 0755))
	stale := filepath.Join(out, "split_part_9_cols_1_to_1.xlsx")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	descs, err := SplitFile(src, out, 2)
	require.NoError(t, err)
	require.Len(t, descs, 2)
	for _, d := range descs {
		assert.NotEqual(t, filepath.Base(stale), d.Filename)
	}

	// Files from earlier runs are not touched.
	data, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestSplit_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "input.xlsx")
	writeWorkbook(t, src, 3, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, nil).Split(ctx, Request{SourcePath: src, OutputDir: filepath.Join(dir, "out"), MaxColumns: 1})
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}
