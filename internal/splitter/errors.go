package splitter

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/xlsx-column-splitter/internal/dataset"
	"github.com/ginjaninja78/xlsx-column-splitter/pkg/utils"
)

// Error kinds reported by Split. Use errors.Is to test for them.
var (
	// ErrInvalidFormat indicates an unsupported extension or unparseable file.
	ErrInvalidFormat = dataset.ErrInvalidFormat

	// ErrFileNotFound indicates the source file cannot be read.
	ErrFileNotFound = dataset.ErrFileNotFound

	// ErrEmptyInput indicates the first sheet has no columns.
	ErrEmptyInput = errors.New("input has no columns")

	// ErrWriteFailure indicates an output part could not be persisted.
	ErrWriteFailure = errors.New("write failure")

	// ErrDirectoryAccess indicates the output directory cannot be created or written.
	ErrDirectoryAccess = utils.ErrDirectoryAccess

	// ErrInvalidRequest indicates a malformed split request.
	ErrInvalidRequest = errors.New("invalid split request")
)

// PartError describes a single partition that failed to persist.
type PartError struct {
	Part     int // 1-based partition index
	StartCol int // 1-based, inclusive
	EndCol   int // 1-based, inclusive
	Path     string
	Err      error
}

func (e *PartError) Error() string {
	return fmt.Sprintf("part %d (columns %d to %d) %s: %v", e.Part, e.StartCol, e.EndCol, e.Path, e.Err)
}

func (e *PartError) Unwrap() []error {
	return []error{ErrWriteFailure, e.Err}
}
