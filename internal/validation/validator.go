// =============================================================================
// Column Splitter - Request Validation
// =============================================================================
//
// This module validates the user-supplied parts of a split request before
// the splitter is invoked:
//   - The uploaded file name (present, allowed extension)
//   - The max-columns form value (integer, at least 1)
//
// ERROR HANDLING:
//   - Errors are collected, not returned one at a time
//   - Each error names the offending field and value
//
// =============================================================================

package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/xlsx-column-splitter/pkg/utils"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Rule names reported in ValidationError.Rule.
const (
	RuleRequired  = "required"
	RuleExtension = "extension"
	RuleInteger   = "integer"
	RuleMinimum   = "minimum"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	// Field is the name of the form field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("field '%s': %s (value: '%s')", e.Field, e.Message, e.Value)
}

// Errors is a list of validation errors that is itself an error.
type Errors []*ValidationError

// Error joins the messages of every error.
func (errs Errors) Error() string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether any error violated rule.
func (errs Errors) Has(rule string) bool {
	for _, err := range errs {
		if err.Rule == rule {
			return true
		}
	}
	return false
}

// =============================================================================
// FIELD VALIDATORS
// =============================================================================

// ValidateFilename checks that an uploaded file name is present and carries
// an allowed spreadsheet extension.
func ValidateFilename(field, name string) *ValidationError {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: field, Value: name, Rule: RuleRequired, Message: "no file selected"}
	}
	if !utils.AllowedFile(name) {
		return &ValidationError{
			Field:   field,
			Value:   name,
			Rule:    RuleExtension,
			Message: fmt.Sprintf("file type not allowed, expected one of: %s", strings.Join(utils.AllowedExtensions, ", ")),
		}
	}
	return nil
}

// ParseMaxColumns parses a max-columns value. An empty value yields def.
//
// RETURNS:
//   - The parsed value.
//   - A *ValidationError if the value is not an integer of at least 1.
func ParseMaxColumns(field, raw string, def int) (int, *ValidationError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: raw, Rule: RuleInteger, Message: "must be a whole number"}
	}
	if n < 1 {
		return 0, &ValidationError{Field: field, Value: raw, Rule: RuleMinimum, Message: "must be at least 1"}
	}
	return n, nil
}

// =============================================================================
// REQUEST VALIDATION
// =============================================================================

// UploadForm is the user input of one upload.
type UploadForm struct {
	Filename   string
	MaxColumns string
}

// ValidateUpload checks an upload form and returns the effective
// max-columns value. The returned error, if any, is of type Errors.
func ValidateUpload(form UploadForm, defaultMaxColumns int) (int, error) {
	var errs Errors

	if err := ValidateFilename("file", form.Filename); err != nil {
		errs = append(errs, err)
	}

	maxColumns, err := ParseMaxColumns("max_columns", form.MaxColumns, defaultMaxColumns)
	if err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return 0, errs
	}
	return maxColumns, nil
}
