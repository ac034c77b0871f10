// Package ui provides terminal output components for the table extractor CLI.
package ui

import (
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	stdout      io.Writer = os.Stdout
	stderr      io.Writer = os.Stderr
	verboseFlag bool
	quietFlag   bool
)

// InitUI initializes the UI with color and verbosity settings. Quiet mode
// suppresses everything except errors, for machine-readable output.
func InitUI(noColor, verbose, quiet bool) {
	verboseFlag = verbose
	quietFlag = quiet
	if noColor {
		color.NoColor = true
	}
}

// SetOutput redirects UI output. Used by tests.
func SetOutput(out, errOut io.Writer) {
	stdout = out
	stderr = errOut
}

// Verbose reports whether verbose output was requested.
func Verbose() bool { return verboseFlag }
