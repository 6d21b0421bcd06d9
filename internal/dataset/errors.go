package dataset

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input file does not exist or cannot be read.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input file is not a supported spreadsheet.
var ErrInvalidFormat = errors.New("invalid spreadsheet format")

// FormatError describes a file that could not be read as a spreadsheet.
type FormatError struct {
	Path   string
	Format string // "xlsx", "xls", or the rejected extension
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cannot read %s as %s: %v", e.Path, e.Format, e.Err)
}

func (e *FormatError) Unwrap() []error {
	return []error{ErrInvalidFormat, e.Err}
}
