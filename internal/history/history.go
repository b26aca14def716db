// Package history persists memory samples as flat text, one line per sample.
package history

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/loykin/dumbmem/internal/probe"
)

// TimeLayout is the wall-clock format of the first field of a line.
const TimeLayout = "15:04:05"

// Record is one sample as written to the output: local wall-clock time and
// resident memory in whole mebibytes.
type Record struct {
	Timestamp time.Time
	MemoryMiB uint64
}

// NewRecord converts a snapshot taken at ts.
func NewRecord(ts time.Time, snap probe.Snapshot) Record {
	return Record{Timestamp: ts, MemoryMiB: snap.PhysicalMiB()}
}

// Line renders the record as "HH:MM:SS<TAB>MiB<NEWLINE>".
func (r Record) Line() string {
	return r.Timestamp.Local().Format(TimeLayout) + "\t" + strconv.FormatUint(r.MemoryMiB, 10) + "\n"
}

// ParseLine is the inverse of Line. The returned timestamp carries only the
// time of day.
func ParseLine(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	ts, mib, ok := strings.Cut(line, "\t")
	if !ok {
		return Record{}, fmt.Errorf("malformed sample line %q: missing tab", line)
	}
	t, err := time.ParseInLocation(TimeLayout, ts, time.Local)
	if err != nil {
		return Record{}, fmt.Errorf("malformed sample time %q: %w", ts, err)
	}
	n, err := strconv.ParseUint(mib, 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("malformed sample memory %q: %w", mib, err)
	}
	return Record{Timestamp: t, MemoryMiB: n}, nil
}

// Sink receives records in sampling order. It is owned by a single writer.
type Sink interface {
	Append(r Record) error
}

// SinkWriteError reports that the output could not be opened or appended to.
type SinkWriteError struct {
	Op   string // "open", "write" or "close"
	Path string
	Err  error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("%s sample output %s: %v", e.Op, e.Path, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }
