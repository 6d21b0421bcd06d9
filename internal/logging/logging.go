// Package logging builds the structured loggers used across the splitter and
// keeps a bounded in-memory copy of recent records for the log viewer.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Supported output formats.
const (
	FormatLogfmt = "logfmt"
	FormatJSON   = "json"
)

// New returns a logger writing to w in the given format, with a UTC
// timestamp on every record.
func New(w io.Writer, format string) (log.Logger, error) {
	var logger log.Logger
	switch strings.ToLower(format) {
	case "", FormatLogfmt:
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case FormatJSON:
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return log.With(logger, "ts", log.DefaultTimestampUTC), nil
}

// Filter drops records below lvl.
func Filter(logger log.Logger, lvl string) (log.Logger, error) {
	opt, err := LevelOption(lvl)
	if err != nil {
		return nil, err
	}
	return level.NewFilter(logger, opt), nil
}

// LevelOption maps a level name to a go-kit filter option.
func LevelOption(lvl string) (level.Option, error) {
	switch strings.ToLower(lvl) {
	case "debug":
		return level.AllowDebug(), nil
	case "", "info":
		return level.AllowInfo(), nil
	case "warn", "warning":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	default:
		return nil, fmt.Errorf("unknown log level %q", lvl)
	}
}

// Tee returns a logger that sends every record to each of loggers. The first
// error encountered is returned after all loggers have been called.
func Tee(loggers ...log.Logger) log.Logger {
	return log.LoggerFunc(func(keyvals ...interface{}) error {
		var first error
		for _, l := range loggers {
			if err := l.Log(keyvals...); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
