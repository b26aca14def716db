package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// helper to close non-nil closers and ignore errors
func closeIf(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

func TestFileWriter_Defaults(t *testing.T) {
	if w := (FileConfig{}).Writer(); w != nil {
		t.Fatalf("expected nil writer without a path")
	}
	w := FileConfig{Path: filepath.Join(t.TempDir(), "x.log")}.Writer()
	defer closeIf(w)
	l, ok := w.(*lj.Logger)
	if !ok {
		t.Fatalf("writer is not lumberjack.Logger")
	}
	if l.MaxSize != 10 || l.MaxBackups != 3 || l.MaxAge != 7 || l.Compress {
		t.Fatalf("unexpected defaults: size=%d backups=%d age=%d", l.MaxSize, l.MaxBackups, l.MaxAge)
	}
}

func TestFileWriter_Overrides(t *testing.T) {
	w := FileConfig{Path: filepath.Join(t.TempDir(), "x.log"), MaxSizeMB: 1, MaxBackups: 9, MaxAgeDays: 11, Compress: true}.Writer()
	defer closeIf(w)
	l := w.(*lj.Logger)
	if l.MaxSize != 1 || l.MaxBackups != 9 || l.MaxAge != 11 || !l.Compress {
		t.Fatalf("unexpected overrides: size=%d backups=%d age=%d compress=%t", l.MaxSize, l.MaxBackups, l.MaxAge, l.Compress)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNew_TextToWriter(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Config{Level: "warn"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeIf(closer)
	log.Info("hidden")
	log.Warn("shown", "pid", 42)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "pid=42") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Config{Format: "json", Level: "debug"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug("sample recorded", "mib", 5)
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("not JSON: %v (%q)", err, buf.String())
	}
	if m["msg"] != "sample recorded" || m["mib"] != float64(5) {
		t.Fatalf("unexpected record: %v", m)
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dumbmem.log")
	var stderr bytes.Buffer
	log, closer, err := New(Config{File: FileConfig{Path: path}}, &stderr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("to file")
	closeIf(closer)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "to file") {
		t.Fatalf("log line missing from file: %q", b)
	}
	if stderr.Len() != 0 {
		t.Fatalf("nothing should reach stderr when a file is configured")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, _, err := New(Config{Level: "loud"}, io.Discard); err == nil {
		t.Fatalf("expected level error")
	}
	if _, _, err := New(Config{Format: "xml"}, io.Discard); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestNew_ColorIgnoredForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Config{Color: true}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("plain")
	if strings.Contains(buf.String(), "\033[") {
		t.Fatalf("color codes written to a non-terminal: %q", buf.String())
	}
}

func TestColorTextHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, false)).With("pid", 7)
	log.Error("boom")
	out := buf.String()
	if !strings.Contains(out, "ERROR") || !strings.Contains(out, "boom") {
		t.Fatalf("missing level prefix: %q", out)
	}
	if !strings.Contains(out, "pid=7") {
		t.Fatalf("attrs lost on derived logger: %q", out)
	}
	if strings.Contains(out, "time=") {
		t.Fatalf("time should be dropped when showTime is false: %q", out)
	}

	buf.Reset()
	slog.New(NewColorTextHandler(&buf, nil, true)).WithGroup("g").Info("hi", "k", "v")
	if !strings.Contains(buf.String(), "time=") || !strings.Contains(buf.String(), "g.k=v") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
