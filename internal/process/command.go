package process

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-shellwords"
)

// ErrEmptyCommand is returned when a command string yields no program name.
var ErrEmptyCommand = errors.New("command is empty")

// ErrShellOperator is returned for an unquoted ; & | < or >.
var ErrShellOperator = errors.New("unquoted shell operator")

// Tokenize splits a shell-style command string into a program and its
// arguments using POSIX word splitting and quoting. Environment variables and
// backticks are not expanded, and unquoted shell operators (; & | < >) are
// rejected: the command is executed directly, not through a shell. Use
// "sh -c '...'" for pipelines.
func Tokenize(command string) (string, []string, error) {
	if strings.TrimSpace(command) == "" {
		return "", nil, ErrEmptyCommand
	}
	p := shellwords.NewParser()
	p.ParseEnv = false
	p.ParseBacktick = false
	words, err := p.Parse(command)
	if err != nil {
		return "", nil, fmt.Errorf("parse command %q: %w", command, err)
	}
	if p.Position >= 0 {
		return "", nil, fmt.Errorf("parse command %q: %w at offset %d (quote it, or run the command via sh -c '...')", command, ErrShellOperator, p.Position)
	}
	if len(words) == 0 || words[0] == "" {
		return "", nil, ErrEmptyCommand
	}
	return words[0], words[1:], nil
}

// SpawnCommand tokenizes command and starts it with the monitor's stdio.
func SpawnCommand(command string, stop *StopSignal, log *slog.Logger) (*Child, error) {
	program, args, err := Tokenize(command)
	if err != nil {
		return nil, err
	}
	return Spawn(Spec{
		Program: program,
		Args:    args,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}, stop, log)
}
