//go:build !linux

package process

import "errors"

var errWaitableUnsupported = errors.New("non-reaping wait is not supported on this platform")

func blockUntilExited(int) error { return errWaitableUnsupported }
