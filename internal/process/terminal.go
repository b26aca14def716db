package process

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// onTerminal reports whether r is a terminal device.
func onTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
