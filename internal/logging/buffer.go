package logging

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// DefaultBufferSize is the number of records a Buffer keeps when no size is
// configured.
const DefaultBufferSize = 1000

// Entry is one record held by a Buffer.
type Entry struct {
	Time    time.Time
	Level   string
	Message string

	// Fields holds the remaining key/value pairs in logfmt.
	Fields string
}

// Buffer is a log.Logger that keeps the most recent records in memory.
// It is safe for concurrent use.
type Buffer struct {
	mtx     sync.Mutex
	entries []Entry
	next    int
	full    bool
	now     func() time.Time
}

// NewBuffer returns a Buffer holding at most size records.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{
		entries: make([]Entry, size),
		now:     time.Now,
	}
}

// Log implements log.Logger.
func (b *Buffer) Log(keyvals ...interface{}) error {
	e := Entry{Time: b.now()}

	var rest []interface{}
	for i := 0; i < len(keyvals); i += 2 {
		k := fmt.Sprint(keyvals[i])
		var v interface{} = log.ErrMissingValue
		if i+1 < len(keyvals) {
			v = keyvals[i+1]
		}

		switch k {
		case fmt.Sprint(level.Key()):
			e.Level = fmt.Sprint(v)
		case "msg":
			e.Message = fmt.Sprint(v)
		case "ts":
			// The buffer stamps records itself.
		default:
			rest = append(rest, k, v)
		}
	}

	if len(rest) > 0 {
		var buf bytes.Buffer
		if err := log.NewLogfmtLogger(&buf).Log(rest...); err != nil {
			return err
		}
		e.Fields = strings.TrimSuffix(buf.String(), "\n")
	}

	b.mtx.Lock()
	defer b.mtx.Unlock()

	b.entries[b.next] = e
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
	return nil
}

// Entries returns up to limit of the newest records, oldest first.
// A limit of zero or less returns every held record.
func (b *Buffer) Entries(limit int) []Entry {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	var ordered []Entry
	if b.full {
		ordered = append(ordered, b.entries[b.next:]...)
	}
	ordered = append(ordered, b.entries[:b.next]...)

	if limit > 0 && len(ordered) > limit {
		ordered = ordered[len(ordered)-limit:]
	}
	return ordered
}

// Len returns the number of held records.
func (b *Buffer) Len() int {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.full {
		return len(b.entries)
	}
	return b.next
}
