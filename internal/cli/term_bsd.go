//go:build darwin || freebsd || netbsd || openbsd
// +build darwin freebsd netbsd openbsd

package cli

import (
	"os"

	"golang.org/x/sys/unix"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	_, err := unix.IoctlGetTermios(int(f.Fd()), unix.TIOCGETA)
	return err == nil
}
