package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/odvcencio/scribe/pkg/paths"
	"github.com/odvcencio/scribe/pkg/replay/eventlog"
	"github.com/odvcencio/scribe/pkg/replay/inspect"
)

func runInspectCommand(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	logPath := fs.String("log", "", "event log to list")
	summary := fs.Bool("summary", false, "print counts per kind and controller instead of events")
	queries := fs.Bool("queries", true, "include environment query records")
	color := fs.String("color", "auto", "auto, always or never")
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, exitUsage)
	}
	if *logPath == "" && fs.NArg() > 0 {
		*logPath = fs.Arg(0)
	}
	if *logPath == "" {
		return usageError("inspect needs a log file")
	}

	log, err := eventlog.Load(paths.ExpandHome(*logPath))
	if err != nil {
		return err
	}
	if *summary {
		s, err := inspect.Summarize(log)
		if _, werr := s.WriteTo(stdout); werr != nil {
			return werr
		}
		return err
	}

	useColor, err := wantColor(*color)
	if err != nil {
		return err
	}
	return inspect.Dump(log, stdout, inspect.Options{Color: useColor, Queries: *queries})
}

// wantColor resolves a -color flag. auto means stdout is a terminal and
// NO_COLOR is unset.
func wantColor(mode string) (bool, error) {
	switch strings.ToLower(mode) {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "", "auto":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		f, ok := stdout.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, usageError(fmt.Sprintf("unknown color mode %q (use auto, always or never)", mode))
	}
}

var errLogsDiffer = errors.New("logs differ")

func runDiffCommand(args []string) error {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, exitUsage)
	}
	if fs.NArg() != 2 {
		return usageError("diff needs two log files")
	}
	a, err := eventlog.Load(paths.ExpandHome(fs.Arg(0)))
	if err != nil {
		return err
	}
	b, err := eventlog.Load(paths.ExpandHome(fs.Arg(1)))
	if err != nil {
		return err
	}
	out, err := inspect.Diff(a, b)
	if err != nil {
		return err
	}
	if out == "" {
		fmt.Fprintln(stdout, "logs are identical")
		return nil
	}
	fmt.Fprint(stdout, out)
	return withExitCode(errLogsDiffer, exitFatal)
}
