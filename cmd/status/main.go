// Package main provides the status command: it lists every conversion
// tracked in a directory's sidecar store and whether the converted file
// drifted since conversion.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/y-gotou/charenc/internal/cmdcommon"
	"github.com/y-gotou/charenc/internal/inspect"
	"github.com/y-gotou/charenc/internal/integrity"
	"github.com/y-gotou/charenc/internal/terminal"
)

var errTooManyArgs = errors.New("at most one directory may be given")

type statusOptions struct {
	jsonOutput bool
	configPath string
	logLevel   string
	logFormat  string
	version    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		printUsage(fs, stderr)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.version {
		cmdcommon.PrintVersion(stdout, "charenc-status")
		return 0
	}

	if _, err := cmdcommon.SetupRuntime(opts.configPath, opts.logLevel, opts.logFormat, stderr); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	dir := "."
	if fs.NArg() == 1 {
		dir = fs.Arg(0)
	}

	entries, err := inspect.Scan(dir, &integrity.SHA256{})
	if err != nil {
		_ = cmdcommon.EmitResult(stdout, cmdcommon.NewErrorResult(err))
		return 1
	}

	if opts.jsonOutput {
		if entries == nil {
			entries = []inspect.Entry{}
		}
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		_ = enc.Encode(entries)
		return 0
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintln(stdout, "No tracked conversions.")
		return 0
	}

	renderTable(stdout, entries)
	return 0
}

func renderTable(stdout io.Writer, entries []inspect.Entry) {
	color := false
	if f, ok := stdout.(*os.File); ok {
		color = terminal.SupportsColor(f, terminal.Options{})
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"File", "Encoding", "Line Ending", "Converted At", "Backup", "State"})
	for _, e := range entries {
		backup := "-"
		if e.HasBackup {
			backup = "yes"
		}
		tw.AppendRow(table.Row{e.Name, e.Encoding, e.LineEnding, e.ConvertedAt, backup, stateCell(e.State, color)})
	}
	tw.Render()
}

func stateCell(state inspect.State, color bool) string {
	if !color {
		return string(state)
	}
	switch state {
	case inspect.StateClean:
		return text.FgGreen.Sprint(state)
	case inspect.StateDrifted:
		return text.FgYellow.Sprint(state)
	case inspect.StateMissing, inspect.StateForeign:
		return text.FgRed.Sprint(state)
	default:
		return string(state)
	}
}

func parseArgs(args []string, stderr io.Writer) (*statusOptions, *flag.FlagSet, error) {
	opts := &statusOptions{}

	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }
	fs.BoolVar(&opts.jsonOutput, "json", false, "Emit the listing as JSON")
	fs.StringVar(&opts.configPath, "config", "", "Path to the config file")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.logFormat, "log-format", "", "Log format (text, json)")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	if opts.version {
		return opts, fs, nil
	}
	if fs.NArg() > 1 {
		return nil, fs, errTooManyArgs
	}
	return opts, fs, nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	if fs == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "Usage: %s [flags] [directory]\n", filepath.Base(os.Args[0]))
	fs.PrintDefaults()
}
