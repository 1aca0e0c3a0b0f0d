// Package main provides the decode command: it re-encodes an edited UTF-8
// working copy back into the original legacy encoding recorded at
// conversion time, restoring line endings and verifying content integrity.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/y-gotou/charenc/internal/charset"
	"github.com/y-gotou/charenc/internal/cmdcommon"
	"github.com/y-gotou/charenc/internal/convert"
	"github.com/y-gotou/charenc/internal/integrity"
)

var errOneFile = errors.New("exactly one file must be given")

type decodeOptions struct {
	encoding   string
	output     string
	errorsMode string
	keepBackup bool
	strictHash bool
	force      bool
	configPath string
	logLevel   string
	logFormat  string
	version    bool
}

type decodeResult struct {
	Status          string                `json:"status"`
	File            string                `json:"file"`
	Encoding        string                `json:"encoding"`
	LineEnding      string                `json:"line_ending"`
	BackupRemoved   bool                  `json:"backup_removed"`
	MetadataRemoved bool                  `json:"metadata_removed"`
	Drift           *convert.DriftWarning `json:"drift,omitempty"`
	Warnings        []string              `json:"warnings,omitempty"`
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
		cmdcommon.PrintVersion(stdout, "charenc-decode")
		return 0
	}

	cfg, err := cmdcommon.SetupRuntime(opts.configPath, opts.logLevel, opts.logFormat, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	errorsMode := cfg.Restore.Errors
	if opts.errorsMode != "" {
		errorsMode = opts.errorsMode
	}
	policy, err := charset.ParsePolicy(errorsMode)
	if err != nil {
		printUsage(fs, stderr)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	converter, err := convert.New(&integrity.SHA256{})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	res, err := converter.Restore(convert.RestoreOptions{
		File:       fs.Arg(0),
		Encoding:   opts.encoding,
		Output:     opts.output,
		Policy:     policy,
		Cleanup:    !opts.keepBackup && !cfg.Restore.KeepBackup,
		StrictHash: opts.strictHash || cfg.Restore.StrictHash,
		Force:      opts.force,
	})
	if err != nil {
		_ = cmdcommon.EmitResult(stdout, cmdcommon.NewErrorResult(err))
		return 1
	}

	_ = cmdcommon.EmitResult(stdout, decodeResult{
		Status:          "success",
		File:            res.File,
		Encoding:        res.Encoding,
		LineEnding:      string(res.LineEnding),
		BackupRemoved:   res.BackupRemoved,
		MetadataRemoved: res.MetadataRemoved,
		Drift:           res.Drift,
		Warnings:        res.Warnings,
	})
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*decodeOptions, *flag.FlagSet, error) {
	opts := &decodeOptions{}

	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }
	fs.StringVar(&opts.encoding, "encoding", "", "Target encoding when no metadata exists for the file")
	fs.StringVar(&opts.encoding, "e", "", "Short alias for -encoding")
	fs.StringVar(&opts.output, "output", "", "Output path (default: overwrite the input file)")
	fs.StringVar(&opts.output, "o", "", "Short alias for -output")
	fs.StringVar(&opts.errorsMode, "errors", "", "Encoding error policy (strict, replace, backslashreplace, xmlcharrefreplace)")
	fs.BoolVar(&opts.keepBackup, "keep-backup", false, "Keep the backup and metadata after a successful restore")
	fs.BoolVar(&opts.strictHash, "strict-hash", false, "Fail the restore when the file changed since conversion")
	fs.BoolVar(&opts.force, "force", false, "Restore even when the file changed since conversion")
	fs.BoolVar(&opts.force, "f", false, "Short alias for -force")
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
	if fs.NArg() != 1 {
		return nil, fs, errOneFile
	}
	return opts, fs, nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	if fs == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "Usage: %s [flags] <file>\n", filepath.Base(os.Args[0]))
	fs.PrintDefaults()
}
