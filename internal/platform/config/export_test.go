package config

import "io"

// SwapExit replaces the process exit hook and returns a restore func.
func SwapExit(fn func(int)) func() {
	previous := exit
	exit = fn
	return func() { exit = previous }
}

// ExitfTo exposes exitf with an explicit writer and code.
func ExitfTo(w io.Writer, code int, format string, args ...any) {
	exitf(w, code, format, args...)
}
