package splitter

import (
	"fmt"
)

// DefaultMaxColumns is the column ceiling of the downstream importers the
// split files are produced for.
const DefaultMaxColumns = 4900

// OutputExtension is the extension of every written partition.
const OutputExtension = ".xlsx"

// ColumnRange is a half-open, 0-based range of columns [Start, End).
type ColumnRange struct {
	Start int
	End   int
}

// Width returns the number of columns in the range.
func (r ColumnRange) Width() int {
	return r.End - r.Start
}

// Plan partitions total columns into contiguous ranges of at most
// maxColumns, in increasing order. It returns nil when total is zero.
//
// EXAMPLE:
//   Plan(10000, 4900) -> [0,4900) [4900,9800) [9800,10000)
func Plan(total, maxColumns int) []ColumnRange {
	if total <= 0 || maxColumns <= 0 {
		return nil
	}

	parts := (total + maxColumns - 1) / maxColumns
	ranges := make([]ColumnRange, parts)
	for i := range ranges {
		ranges[i] = ColumnRange{
			Start: i * maxColumns,
			End:   min((i+1)*maxColumns, total),
		}
	}
	return ranges
}

// PartFilename returns the deterministic name of a partition file.
//
// PARAMETERS:
//   - part: The 1-based partition index.
//   - r:    The 0-based column range of the partition.
//
// EXAMPLE:
//   PartFilename(2, ColumnRange{4900, 9800}) -> "split_part_2_cols_4901_to_9800.xlsx"
func PartFilename(part int, r ColumnRange) string {
	return fmt.Sprintf("split_part_%d_cols_%d_to_%d%s", part, r.Start+1, r.End, OutputExtension)
}
