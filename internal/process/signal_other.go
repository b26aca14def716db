//go:build !linux

package process

import "os"

// killProcess terminates the child itself. Without waitid(WNOWAIT) the wait
// path may have reaped the child already, so only os.Process is used: it
// refuses to signal a finished process.
func killProcess(p *os.Process, _ bool) error {
	return p.Kill()
}
