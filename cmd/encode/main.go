// Package main provides the encode command: it converts a file from a
// legacy encoding into a normalized UTF-8 working copy and records how to
// invert the conversion.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/y-gotou/charenc/internal/cmdcommon"
	"github.com/y-gotou/charenc/internal/convert"
	"github.com/y-gotou/charenc/internal/integrity"
)

var errEncodingRequired = errors.New("-encoding is required (e.g. cp932, shift_jis, euc-jp)")

var errOneFile = errors.New("exactly one file must be given")

type encodeOptions struct {
	encoding   string
	output     string
	backupDir  string
	noBackup   bool
	configPath string
	logLevel   string
	logFormat  string
	version    bool
}

type encodeResult struct {
	Status           string   `json:"status"`
	File             string   `json:"file"`
	OriginalEncoding string   `json:"original_encoding"`
	LineEnding       string   `json:"line_ending"`
	Backup           string   `json:"backup,omitempty"`
	Metadata         string   `json:"metadata"`
	Warnings         []string `json:"warnings,omitempty"`
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
		cmdcommon.PrintVersion(stdout, "charenc-encode")
		return 0
	}

	cfg, err := cmdcommon.SetupRuntime(opts.configPath, opts.logLevel, opts.logFormat, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	backupDir := cfg.Backup.Dir
	if opts.backupDir != "" {
		backupDir = opts.backupDir
	}

	converter, err := convert.New(&integrity.SHA256{})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	res, err := converter.ToUTF8(convert.ConvertOptions{
		File:      fs.Arg(0),
		Encoding:  opts.encoding,
		Output:    opts.output,
		Backup:    cfg.Backup.Enabled && !opts.noBackup,
		BackupDir: backupDir,
	})
	if err != nil {
		_ = cmdcommon.EmitResult(stdout, cmdcommon.NewErrorResult(err))
		return 1
	}

	_ = cmdcommon.EmitResult(stdout, encodeResult{
		Status:           "success",
		File:             res.Output,
		OriginalEncoding: res.Encoding,
		LineEnding:       string(res.LineEnding),
		Backup:           res.BackupPath,
		Metadata:         res.MetadataPath,
		Warnings:         res.Warnings,
	})
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*encodeOptions, *flag.FlagSet, error) {
	opts := &encodeOptions{}

	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }
	fs.StringVar(&opts.encoding, "encoding", "", "Source encoding (e.g. cp932, shift_jis, euc-jp)")
	fs.StringVar(&opts.encoding, "e", "", "Short alias for -encoding")
	fs.StringVar(&opts.output, "output", "", "Output path (default: overwrite the input file)")
	fs.StringVar(&opts.output, "o", "", "Short alias for -output")
	fs.StringVar(&opts.backupDir, "backup-dir", "", "Directory for the pre-conversion backup (default: the file's directory)")
	fs.BoolVar(&opts.noBackup, "no-backup", false, "Skip backup creation")
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
	if opts.encoding == "" {
		return nil, fs, errEncodingRequired
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
