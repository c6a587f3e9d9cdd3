package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func captureOutput(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	t.Cleanup(func() { stdout, stderr = prevOut, prevErr })
	return out, errOut
}

func TestParseGlobalFlagsStopsAtSubcommand(t *testing.T) {
	prev := globals
	t.Cleanup(func() { globals = prev })
	captureOutput(t)

	rest, err := parseGlobalFlags([]string{"-config", "x.yaml", "-trace", "play", "-log", "a.evlog"})
	if err != nil {
		t.Fatalf("parseGlobalFlags error: %v", err)
	}
	if globals.configPath != "x.yaml" || !globals.trace {
		t.Fatalf("globals=%+v", globals)
	}
	if strings.Join(rest, " ") != "play -log a.evlog" {
		t.Fatalf("rest=%v", rest)
	}
}

func TestParseGlobalFlagsRejectsUnknown(t *testing.T) {
	prev := globals
	t.Cleanup(func() { globals = prev })
	captureOutput(t)

	if _, err := parseGlobalFlags([]string{"-bogus"}); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}

func TestDispatchSubcommandVersionAndHelp(t *testing.T) {
	out, _ := captureOutput(t)

	handled, code := dispatchSubcommand([]string{"version"})
	if !handled || code != 0 {
		t.Fatalf("version: handled=%v code=%d", handled, code)
	}
	if !strings.Contains(out.String(), "Scribe "+version) {
		t.Fatalf("version output=%q", out.String())
	}

	out.Reset()
	handled, code = dispatchSubcommand([]string{"help"})
	if !handled || code != 0 {
		t.Fatalf("help: handled=%v code=%d", handled, code)
	}
	if !strings.Contains(out.String(), "record [-log path]") {
		t.Fatalf("help output missing record usage")
	}
}

func TestDispatchSubcommandLeavesFilesToDefault(t *testing.T) {
	if handled, _ := dispatchSubcommand(nil); handled {
		t.Fatalf("empty args should not be handled")
	}
	if handled, _ := dispatchSubcommand([]string{"notes.txt"}); handled {
		t.Fatalf("a file name should fall through to the default command")
	}
}

func TestRunCommandReportsExitCode(t *testing.T) {
	_, errOut := captureOutput(t)

	code := runCommand(func([]string) error { return usageError("bad usage") }, nil)
	if code != exitUsage {
		t.Fatalf("code=%d want %d", code, exitUsage)
	}
	if !strings.Contains(errOut.String(), "Error: bad usage") {
		t.Fatalf("stderr=%q", errOut.String())
	}
	if code := runCommand(func([]string) error { return nil }, nil); code != exitOK {
		t.Fatalf("code=%d want 0", code)
	}
}

func TestExitCodeForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{errors.New("plain"), exitFatal},
		{withExitCode(errors.New("usage"), exitUsage), exitUsage},
		{fmt.Errorf("wrapped: %w", withExitCode(errors.New("usage"), exitUsage)), exitUsage},
		{exitError{}, exitFatal},
	}
	for _, tc := range cases {
		if got := exitCodeForError(tc.err); got != tc.want {
			t.Fatalf("exitCodeForError(%v)=%d want %d", tc.err, got, tc.want)
		}
	}
	if withExitCode(nil, exitUsage) != nil {
		t.Fatalf("withExitCode(nil) should be nil")
	}
}
