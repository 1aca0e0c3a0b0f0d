// Package cmdcommon provides shared wiring for the charenc command-line
// tools: build metadata, result emission, and the mapping from the error
// taxonomy to stable result codes.
package cmdcommon

import (
	"fmt"
	"io"
)

// Build-time variables (set via ldflags).
var (
	Version  = "dev"
	Revision = "unknown"
)

// PrintVersion writes the standard version line for a command.
func PrintVersion(w io.Writer, command string) {
	_, _ = fmt.Fprintf(w, "%s %s (%s)\n", command, Version, Revision)
}
