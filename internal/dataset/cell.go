package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Cell is one value of a sheet.
//
// VALUE TYPES:
//
//	| Value   | Sheet cell                                |
//	|---------|-------------------------------------------|
//	| nil     | empty                                     |
//	| string  | shared, inline or formula string, error   |
//	| int64   | integral number, kept digit for digit     |
//	| float64 | any other number, including date serials  |
//	| bool    | boolean                                   |
//
// Number cells keep the number format they were read with, so a percentage
// stays a percentage and a date stays a date in the written copy. Date
// serials always use the 1900 date system.
type Cell struct {
	Value interface{}

	// NumFmt is a built-in number format ID. Zero is General.
	NumFmt int

	// CustomNumFmt is a custom format code. It takes precedence over NumFmt.
	CustomNumFmt string
}

// Text returns a string cell. The empty string is an empty cell.
func Text(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Value: s}
}

// Int returns an integral number cell.
func Int(v int64) Cell { return Cell{Value: v} }

// Number returns a number cell.
func Number(v float64) Cell { return Cell{Value: v} }

// Bool returns a boolean cell.
func Bool(v bool) Cell { return Cell{Value: v} }

// Texts returns one string cell per value.
func Texts(values ...string) []Cell {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Text(v)
	}
	return cells
}

// WithFormat returns a copy of c displayed with the built-in format id.
func (c Cell) WithFormat(id int) Cell {
	c.NumFmt = id
	return c
}

// WithCustomFormat returns a copy of c displayed with the format code.
func (c Cell) WithCustomFormat(code string) Cell {
	c.CustomNumFmt = code
	return c
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return c.Value == nil
}

// String returns the raw value as text, without number formatting.
func (c Cell) String() string {
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(v)
	}
}

// HasFormat reports whether the cell carries a number format other than
// General.
func (c Cell) HasFormat() bool {
	return c.NumFmt != 0 || c.CustomNumFmt != ""
}

// IsDate reports whether c is a number displayed with a date or time format.
func (c Cell) IsDate() bool {
	if _, ok := c.number(); !ok {
		return false
	}
	if c.CustomNumFmt != "" {
		return isDateFormatCode(c.CustomNumFmt)
	}
	return isDateFormatID(c.NumFmt)
}

// Time converts a date cell to the time it represents.
func (c Cell) Time() (time.Time, error) {
	v, ok := c.number()
	if !ok || !c.IsDate() {
		return time.Time{}, fmt.Errorf("cell %q is not a date", c.String())
	}
	return excelize.ExcelDateToTime(v, false)
}

func (c Cell) number() (float64, bool) {
	switch v := c.Value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// shiftDays moves a date serial by days, keeping integral serials integral.
func (c Cell) shiftDays(days int64) Cell {
	switch v := c.Value.(type) {
	case int64:
		c.Value = v + days
	case float64:
		c.Value = v + float64(days)
	}
	return c
}

// =============================================================================
// DATE FORMATS
// =============================================================================

// isDateFormatID reports whether a built-in format displays a date or a time.
// The language-specific ranges are included.
func isDateFormatID(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code displays a date or a
// time. Only the first section is inspected. Quoted literals, escaped
// characters and bracketed colors or locales are skipped; elapsed time
// brackets such as [h] count as time.
func isDateFormatCode(code string) bool {
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}

	for i := 0; i < len(code); i++ {
		switch ch := code[i]; ch {
		case '"':
			for i++; i < len(code) && code[i] != '"'; i++ {
			}
		case '\\', '_', '*':
			i++
		case '[':
			end := strings.IndexByte(code[i:], ']')
			if end < 0 {
				return false
			}
			inner := strings.ToLower(code[i+1 : i+end])
			if inner != "" && strings.Trim(inner, "hms") == "" {
				return true
			}
			i += end
		case 'y', 'Y', 'm', 'M', 'd', 'D', 'h', 'H', 's', 'S':
			return true
		}
	}
	return false
}

// excelEpoch is day zero of the 1900 date system for serials after
// February 1900.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// firstSafeSerialDate is the first day whose serial is unaffected by the
// 1900 leap year bug.
var firstSafeSerialDate = time.Date(1900, time.March, 1, 0, 0, 0, 0, time.UTC)

// dateCell converts t to a date serial cell. Times before March 1900 are
// kept as text.
func dateCell(t time.Time) Cell {
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	if t.Before(firstSafeSerialDate) {
		return Text(t.Format(time.RFC3339))
	}

	secs := t.Unix() - excelEpoch.Unix()
	if secs%86400 == 0 && t.Nanosecond() == 0 {
		// m/d/yyyy
		return Int(secs / 86400).WithFormat(14)
	}
	// m/d/yyyy h:mm
	return Number((float64(secs) + float64(t.Nanosecond())/1e9) / 86400).WithFormat(22)
}
