// Package terminal detects whether output is going to an interactive
// terminal, which decides how the status listing renders and whether color
// is appropriate.
package terminal

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Options override automatic detection.
type Options struct {
	ForceInteractive    bool
	ForceNonInteractive bool
}

// ciEnvVars are checked to suppress interactive rendering under CI.
var ciEnvVars = []string{"CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}

// IsInteractive reports whether f is attached to a terminal and the process
// is not running under CI.
func IsInteractive(f *os.File, opts Options) bool {
	if opts.ForceNonInteractive {
		return false
	}
	if opts.ForceInteractive {
		return true
	}
	if isCIEnvironment() {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// SupportsColor reports whether colored output is appropriate for f,
// honoring NO_COLOR and CLICOLOR_FORCE.
func SupportsColor(f *os.File, opts Options) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if isTruthy(os.Getenv("CLICOLOR_FORCE")) {
		return true
	}
	return IsInteractive(f, opts)
}

func isCIEnvironment() bool {
	for _, name := range ciEnvVars {
		if isTruthy(os.Getenv(name)) {
			return true
		}
	}
	return false
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no":
		return false
	default:
		return true
	}
}
