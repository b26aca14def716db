package manager

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/loykin/dumbmem/internal/history"
	"github.com/loykin/dumbmem/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every write to /dev/full fails with ENOSPC.
func TestRunSinkFailureKillsChild(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	cfg := Config{Command: "sleep 30", Interval: 20 * time.Millisecond, Wake: 5 * time.Millisecond, Output: "/dev/full"}
	m := mustNew(t, cfg, testOpts(WithProbe(fixedProbe(1)))...)
	r := within(t, runAsync(context.Background(), m), 5*time.Second)

	var we *history.SinkWriteError
	require.True(t, errors.As(r.err, &we), "got %T: %v", r.err, r.err)
	assert.Equal(t, "write", we.Op)
	assert.Equal(t, process.StopAborted, r.res.Reason)
	assert.Equal(t, process.StateKilled, r.res.Outcome.State)
	assert.Zero(t, r.res.Samples)
}
