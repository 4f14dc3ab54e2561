package config

import (
	"fmt"
	"io"
	"os"
)

// Exit codes used by the keeper CLIs. Usage errors follow the flag package
// convention of exiting with 2.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// exit is swapped in tests that cannot fork a subprocess.
var exit = os.Exit

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	exitf(os.Stderr, ExitFailure, format, args...)
}

// UsageExitf reports a bad flag or environment value and exits with code 2.
func UsageExitf(format string, args ...any) {
	exitf(os.Stderr, ExitUsage, format, args...)
}

func exitf(w io.Writer, code int, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
	exit(code)
}
