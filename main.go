package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/metcalfc/filetext/internal/extract"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: filetext <file_path>"

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("filetext", flag.ContinueOnError)
	fs.SetOutput(stderr)
	showVersion := fs.Bool("v", false, "Show version information")
	showVersionLong := fs.Bool("version", false, "Show version information")
	debug := fs.Bool("debug", false, "Log extractor diagnostics to stderr")
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage)
		fmt.Fprintln(stderr, "       filetext -- <file_path>   (for paths beginning with '-')")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nSupported formats:\n")
		for _, f := range extract.SupportedFormats() {
			fmt.Fprintf(stderr, "  %s\n", f)
		}
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	if *showVersion || *showVersionLong {
		fmt.Fprintf(stdout, "filetext %s (commit: %s, built: %s)\n", version, commit, date)
		return 0
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(stdout, usage)
		return 1
	}

	if *debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(stderr, "Error: failed to initialize logger: %v\n", err)
			return 1
		}
		defer logger.Sync()
		extract.SetLogger(logger)
	}

	filename := fs.Arg(0)
	fmt.Fprintf(stdout, "Received file path: %s\n", filename)

	text, err := extract.Process(ctx, stdout, filename)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, text)
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
