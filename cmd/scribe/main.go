package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
)

// Version information - set via ldflags during build
var (
	version   = "0.1.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// globalOptions are the flags accepted before the subcommand.
type globalOptions struct {
	configPath  string
	metricsAddr string
	trace       bool
}

var globals globalOptions

// Output streams and process exit, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

func main() {
	rest, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitOK)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitUsage)
	}
	if handled, code := dispatchSubcommand(rest); handled {
		os.Exit(code)
	}
	os.Exit(runCommand(runDefaultCommand, rest))
}

// parseGlobalFlags consumes leading global flags and returns the rest.
func parseGlobalFlags(args []string) ([]string, error) {
	fs := flag.NewFlagSet("scribe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&globals.configPath, "config", "", "path to a config file layered over the defaults")
	fs.StringVar(&globals.metricsAddr, "metrics-addr", "", "serve prometheus metrics on host:port")
	fs.BoolVar(&globals.trace, "trace", false, "export replay spans to stderr")
	fs.Usage = printHelp
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}

func dispatchSubcommand(args []string) (bool, int) {
	if len(args) == 0 {
		return false, 0
	}
	switch args[0] {
	case "--version", "-v", "version":
		printVersion()
		return true, exitOK
	case "--help", "-h", "help":
		printHelp()
		return true, exitOK
	case "edit":
		return true, runCommand(runEditCommand, args[1:])
	case "record":
		return true, runCommand(runRecordCommand, args[1:])
	case "play":
		return true, runCommand(runPlayCommand, args[1:])
	case "inspect":
		return true, runCommand(runInspectCommand, args[1:])
	case "diff":
		return true, runCommand(runDiffCommand, args[1:])
	case "sessions":
		return true, runCommand(runSessionsCommand, args[1:])
	case "config":
		return true, runCommand(runConfigCommand, args[1:])
	}
	return false, 0
}

func runCommand(handler func([]string) error, args []string) int {
	if err := handler(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCodeForError(err)
	}
	return exitOK
}

func printHelp() {
	fmt.Fprintln(stdout, "Scribe - a terminal editor with deterministic record and replay")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "USAGE:")
	fmt.Fprintln(stdout, "  scribe [FLAGS] [COMMAND] [ARGS]")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "COMMANDS:")
	fmt.Fprintln(stdout, "  (none) [file...]                 Edit, recording or replaying per replay.mode")
	fmt.Fprintln(stdout, "  edit [file...]                   Edit without recording")
	fmt.Fprintln(stdout, "  record [-log path] [file...]     Edit and record every input to an event log")
	fmt.Fprintln(stdout, "  play [-continue] -log path       Replay a log, then print the screen or keep editing")
	fmt.Fprintln(stdout, "  inspect [-summary] log           List the events in a log")
	fmt.Fprintln(stdout, "  diff a b                         Compare two logs event by event")
	fmt.Fprintln(stdout, "  sessions [-limit n]              List catalogued record and replay runs")
	fmt.Fprintln(stdout, "  config [show|check|path]         Show the resolved configuration")
	fmt.Fprintln(stdout, "  version                          Print version information")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "FLAGS:")
	fmt.Fprintln(stdout, "  -config path                     Config file layered over ~/.scribe and ./.scribe")
	fmt.Fprintln(stdout, "  -metrics-addr host:port          Serve prometheus metrics while running")
	fmt.Fprintln(stdout, "  -trace                           Export replay spans to stderr")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "KEYS:")
	fmt.Fprintln(stdout, "  Ctrl+S save   Ctrl+O open   Ctrl+C copy line   Ctrl+V paste   Ctrl+Q quit")
	fmt.Fprintln(stdout, "  Record and play insert 4 spaces per Tab; editor.tab_width applies to edit only.")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "ENVIRONMENT:")
	fmt.Fprintln(stdout, "  SCRIBE_REPLAY_MODE, SCRIBE_REPLAY_LOG, SCRIBE_LOG_DIR, SCRIBE_METRICS_ADDR")
}

func printVersion() {
	fmt.Fprintf(stdout, "Scribe %s\n", version)
	if commit != "unknown" {
		fmt.Fprintf(stdout, "  Commit:     %s\n", commit)
	}
	if buildDate != "unknown" {
		fmt.Fprintf(stdout, "  Built:      %s\n", buildDate)
	}
	fmt.Fprintf(stdout, "  Go version: %s\n", runtime.Version())
}
