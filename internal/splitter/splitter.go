// =============================================================================
// Column Splitter - Splitter Module
// =============================================================================
//
// This module contains the core splitting logic. It turns one wide
// spreadsheet into several narrower ones, each holding at most MaxColumns
// columns.
//
// SPLITTING PIPELINE:
//   1. Validate the request
//   2. Load the first sheet of the source file into memory
//   3. Reject inputs with zero columns (nothing is written)
//   4. Ensure the output directory exists and is writable
//   5. Partition the columns into contiguous ranges
//   6. For each range, in order:
//      a. Slice the columns out of the dataset
//      b. Write split_part_<i>_cols_<start>_to_<end>.xlsx
//      c. Verify the file exists and is non-empty
//   7. Return one descriptor per verified file
//
// PARTIAL FAILURES:
//   A part that fails to write is recorded in Result.Failures and logged as
//   a warning; the remaining parts are still written. The operation only
//   fails as a whole when no part could be written.
//
// CONCURRENCY:
//   A split is synchronous. The Splitter itself holds no per-run state and
//   may be shared, but callers must not run two splits into the same output
//   directory at once.
//
// =============================================================================

package splitter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ginjaninja78/xlsx-column-splitter/internal/dataset"
)

// =============================================================================
// REQUEST AND RESULT STRUCTURES
// =============================================================================

// Request describes a single split operation.
type Request struct {
	// SourcePath is the spreadsheet to split (.xlsx, .xlsm or .xls).
	SourcePath string

	// OutputDir receives the partition files. It is created if missing.
	OutputDir string

	// MaxColumns is the largest number of columns written to one file.
	// Must be at least 1.
	MaxColumns int
}

// Descriptor describes one written partition file.
type Descriptor struct {
	// Filename is the base name of the written file.
	Filename string

	// Path is the full path of the written file.
	Path string

	// StartCol and EndCol are the 1-based, inclusive column bounds of the
	// partition in the source file.
	StartCol int
	EndCol   int

	// RowCount is the number of data rows, excluding the header row.
	RowCount int

	// ColumnCount is EndCol - StartCol + 1.
	ColumnCount int

	// SizeBytes is the size of the written file.
	SizeBytes int64
}

// Result is the outcome of a split operation.
type Result struct {
	// Descriptors lists the verified output files in partition order.
	Descriptors []Descriptor

	// Failures lists the partitions that could not be written.
	Failures []*PartError

	// TotalColumns and TotalRows describe the source dataset.
	TotalColumns int
	TotalRows    int

	// Duration is the wall time of the operation.
	Duration time.Duration
}

// =============================================================================
// SPLITTER STRUCTURE
// =============================================================================

// Splitter partitions spreadsheets by column.
type Splitter struct {
	logger  log.Logger
	metrics *metrics

	// write persists one partition. Replaced in tests.
	write func(ds *dataset.Dataset, path string) error
}

// New creates a Splitter that logs to logger and registers its metrics with
// reg. Either may be nil.
func New(logger log.Logger, reg prometheus.Registerer) *Splitter {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Splitter{
		logger:  logger,
		metrics: newMetrics(reg),
		write:   dataset.WriteXLSX,
	}
}

// SplitFile splits sourcePath into outputDir with a silent, unregistered
// Splitter and returns the written descriptors.
func SplitFile(sourcePath, outputDir string, maxColumns int) ([]Descriptor, error) {
	res, err := New(nil, nil).Split(context.Background(), Request{
		SourcePath: sourcePath,
		OutputDir:  outputDir,
		MaxColumns: maxColumns,
	})
	if err != nil {
		return nil, err
	}
	return res.Descriptors, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Split runs the splitting pipeline for req.
//
// RETURNS:
//   - The result, listing written files in partition order. When some but
//     not all parts fail, the result is returned with a nil error and the
//     failures in Result.Failures.
//   - An error wrapping one of the package error kinds otherwise.
func (s *Splitter) Split(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	logger := log.With(s.logger, "run_id", uuid.New().String(), "source", req.SourcePath)

	res, err := s.split(ctx, logger, req)
	elapsed := time.Since(start)
	s.metrics.duration.Observe(elapsed.Seconds())

	if err != nil {
		s.metrics.splits.WithLabelValues("failure").Inc()
		level.Error(logger).Log("msg", "split failed", "err", err)
		return nil, err
	}

	res.Duration = elapsed
	outcome := "success"
	if len(res.Failures) > 0 {
		outcome = "partial"
	}
	s.metrics.splits.WithLabelValues(outcome).Inc()

	level.Info(logger).Log(
		"msg", "split complete",
		"files", len(res.Descriptors),
		"failed_parts", len(res.Failures),
		"duration", elapsed,
	)
	return res, nil
}

func (s *Splitter) split(ctx context.Context, logger log.Logger, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 1: LOAD
	// =========================================================================

	level.Info(logger).Log("msg", "reading spreadsheet")

	ds, err := dataset.Load(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", req.SourcePath, err)
	}

	total := ds.ColumnCount()
	level.Info(logger).Log("msg", "spreadsheet loaded", "rows", ds.RowCount(), "columns", total)

	if total == 0 {
		return nil, fmt.Errorf("%s: %w", req.SourcePath, ErrEmptyInput)
	}

	// =========================================================================
	// STEP 2: PREPARE OUTPUT DIRECTORY
	// =========================================================================

	if err := ensureWritableDir(req.OutputDir); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 3: WRITE PARTITIONS
	// =========================================================================

	ranges := Plan(total, req.MaxColumns)
	level.Info(logger).Log("msg", "splitting columns", "parts", len(ranges), "max_columns", req.MaxColumns)

	res := &Result{
		TotalColumns: total,
		TotalRows:    ds.RowCount(),
	}

	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("split of %s interrupted before part %d: %w", req.SourcePath, i+1, err)
		}

		desc, perr := s.writePart(logger, ds, req.OutputDir, i+1, len(ranges), r)
		if perr != nil {
			s.metrics.partFailures.Inc()
			level.Warn(logger).Log("msg", "part not written", "part", perr.Part, "start_col", perr.StartCol, "end_col", perr.EndCol, "err", perr.Err)
			res.Failures = append(res.Failures, perr)
			continue
		}

		s.metrics.partsWritten.Inc()
		res.Descriptors = append(res.Descriptors, desc)
	}

	if len(res.Descriptors) == 0 {
		return nil, fmt.Errorf("no output files written for %s: %w", req.SourcePath, res.Failures[0])
	}

	return res, nil
}

// writePart slices one column range out of ds, writes it and verifies the
// written file.
func (s *Splitter) writePart(logger log.Logger, ds *dataset.Dataset, outputDir string, part, parts int, r ColumnRange) (Descriptor, *PartError) {
	filename := PartFilename(part, r)
	path := filepath.Join(outputDir, filename)

	partErr := func(err error) *PartError {
		return &PartError{Part: part, StartCol: r.Start + 1, EndCol: r.End, Path: path, Err: err}
	}

	level.Debug(logger).Log("msg", "processing part", "part", part, "of", parts, "start_col", r.Start+1, "end_col", r.End, "columns", r.Width())

	sub, err := ds.Slice(r.Start, r.End)
	if err != nil {
		return Descriptor{}, partErr(err)
	}

	if err := s.write(sub, path); err != nil {
		// The writer may have created the file before failing.
		os.Remove(path)
		return Descriptor{}, partErr(err)
	}

	info, err := os.Stat(path)
	switch {
	case err != nil:
		return Descriptor{}, partErr(fmt.Errorf("file was not created: %w", err))
	case info.Size() == 0:
		os.Remove(path)
		return Descriptor{}, partErr(errors.New("file is empty"))
	}

	level.Info(logger).Log("msg", "part written", "part", part, "file", filename, "size", humanize.Bytes(uint64(info.Size())))

	return Descriptor{
		Filename:    filename,
		Path:        path,
		StartCol:    r.Start + 1,
		EndCol:      r.End,
		RowCount:    sub.RowCount(),
		ColumnCount: sub.ColumnCount(),
		SizeBytes:   info.Size(),
	}, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// validateRequest checks the request before any file is touched.
func validateRequest(req Request) error {
	switch {
	case req.SourcePath == "":
		return fmt.Errorf("%w: source path is required", ErrInvalidRequest)
	case req.OutputDir == "":
		return fmt.Errorf("%w: output directory is required", ErrInvalidRequest)
	case req.MaxColumns < 1:
		return fmt.Errorf("%w: max columns must be at least 1, got %d", ErrInvalidRequest, req.MaxColumns)
	}
	return nil
}

// ensureWritableDir creates dir if needed and checks that files can be
// created in it. The test file is removed again.
func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: cannot create output directory %s: %w", ErrDirectoryAccess, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".split-check-*")
	if err != nil {
		return fmt.Errorf("%w: output directory %s is not writable: %w", ErrDirectoryAccess, dir, err)
	}
	tmp.Close()
	os.Remove(tmp.Name())

	return nil
}
