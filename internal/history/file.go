package history

import (
	"bufio"
	"os"
	"path/filepath"
)

// FileSink appends records to a file opened with O_APPEND|O_CREATE. Existing
// content is never truncated. Every record is flushed to the OS as soon as
// it is written so a later kill loses nothing already sampled.
type FileSink struct {
	path  string
	f     *os.File
	w     *bufio.Writer
	count int
}

// OpenFile opens (creating if needed) path for appending.
func OpenFile(path string) (*FileSink, error) {
	clean := filepath.Clean(path)
	// #nosec G302 G304 -- operator-chosen output file, readable like any report
	f, err := os.OpenFile(clean, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, &SinkWriteError{Op: "open", Path: clean, Err: err}
	}
	return &FileSink{path: clean, f: f, w: bufio.NewWriter(f)}, nil
}

// Append writes one line and flushes it.
func (s *FileSink) Append(r Record) error {
	if _, err := s.w.WriteString(r.Line()); err != nil {
		return &SinkWriteError{Op: "write", Path: s.path, Err: err}
	}
	if err := s.w.Flush(); err != nil {
		return &SinkWriteError{Op: "write", Path: s.path, Err: err}
	}
	s.count++
	return nil
}

// Count is the number of records appended through this sink.
func (s *FileSink) Count() int { return s.count }

// Path is the cleaned output path.
func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Close() error {
	if s.f == nil {
		return nil
	}
	flushErr := s.w.Flush()
	err := s.f.Close()
	s.f = nil
	if flushErr != nil {
		return &SinkWriteError{Op: "close", Path: s.path, Err: flushErr}
	}
	if err != nil {
		return &SinkWriteError{Op: "close", Path: s.path, Err: err}
	}
	return nil
}
