package process

import (
	"bytes"
	"io"
	"os"
	"testing"
)

func TestOnTerminalRejectsNonTerminals(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer func() { _ = r.Close(); _ = w.Close() }()
	var nilFile *os.File
	for name, in := range map[string]io.Reader{
		"nil":      nil,
		"buffer":   bytes.NewBufferString("x"),
		"pipe":     r,
		"nil file": nilFile,
	} {
		if onTerminal(in) {
			t.Fatalf("%s reported as a terminal", name)
		}
	}
}
