//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package cli

import "os"

// IsTerminal always reports false; colored output must be forced with
// -color=always on this platform.
func IsTerminal(f *os.File) bool { return false }
