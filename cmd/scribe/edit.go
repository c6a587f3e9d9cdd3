package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/term"

	"github.com/odvcencio/scribe/pkg/editor"
	"github.com/odvcencio/scribe/pkg/logging"
	"github.com/odvcencio/scribe/pkg/paths"
	"github.com/odvcencio/scribe/pkg/replay"
	"github.com/odvcencio/scribe/pkg/ui/backend"
	tcellbackend "github.com/odvcencio/scribe/pkg/ui/backend/tcell"
	"github.com/odvcencio/scribe/pkg/ui/pump"
)

// Package-level so tests can drive the interactive paths on a simulated
// screen.
var (
	isInteractive = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	}
	newTerminal = func() (backend.Backend, error) {
		b, err := tcellbackend.New()
		if err != nil {
			return nil, err
		}
		return b, nil
	}
)

// editorTabWidth returns the tab width for an editor in mode. A Tab inserts
// that many spaces and the width is not in the log, so record and play use
// the editor default.
func editorTabWidth(mode replay.Mode, configured int) int {
	if mode == replay.ModeOff {
		return configured
	}
	return 0
}

type interactiveOptions struct {
	mode      replay.Mode
	logPath   string
	sync      bool
	appendLog bool
	files     []string
}

// runDefaultCommand picks the mode from replay.mode so SCRIBE_REPLAY_MODE
// can switch an unmodified invocation into recording or replay. A replay
// hands the terminal back to the user once the log is exhausted.
func runDefaultCommand(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mode, err := replay.ParseMode(cfg.Replay.Mode)
	if err != nil {
		return err
	}
	switch mode {
	case replay.ModePlay:
		if cfg.Replay.LogPath == "" {
			return usageError("replay.mode is play but no replay.log_path is set")
		}
		return runPlayCommand(append([]string{"-continue", "-log", cfg.Replay.LogPath}, args...))
	case replay.ModeRecord:
		return runRecordCommand(args)
	default:
		return runEditCommand(args)
	}
}

func runEditCommand(args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, exitUsage)
	}
	return runInteractive(interactiveOptions{mode: replay.ModeOff, files: fs.Args()})
}

func runRecordCommand(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	fs.SetOutput(stderr)
	logPath := fs.String("log", cfg.Replay.LogPath, "event log to write (default .scribe/recordings/<id>.evlog)")
	syncLog := fs.Bool("sync", cfg.Replay.Sync, "fsync the log after every event")
	appendLog := fs.Bool("append", cfg.Replay.Append, "append to an existing log instead of truncating it")
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, exitUsage)
	}
	return runInteractive(interactiveOptions{
		mode:      replay.ModeRecord,
		logPath:   *logPath,
		sync:      *syncLog,
		appendLog: *appendLog,
		files:     fs.Args(),
	})
}

func runInteractive(opts interactiveOptions) (err error) {
	if !isInteractive() {
		return usageError("scribe needs an interactive terminal; use 'scribe play' for headless replay")
	}

	id := ulid.Make().String()
	a, err := openApp(id)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.mode == replay.ModeRecord && opts.logPath == "" {
		opts.logPath = paths.RecordingPath(id)
	}

	screen, err := newTerminal()
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	var finiOnce sync.Once
	restore := func() { finiOnce.Do(screen.Fini) }
	defer restore()

	session, err := replay.Open(replay.Options{
		ID:      id,
		Mode:    opts.mode,
		LogPath: paths.ExpandHome(opts.logPath),
		Sync:    opts.sync,
		Append:  opts.appendLog,
		OnFatal: func(ferr error) {
			restore()
			fmt.Fprintf(stderr, "Error: recording lost, stopping: %v\n", ferr)
			a.Close()
			exit(exitFatal)
		},
		Logger: a.logger,
		Hub:    a.hub,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	ed := editor.New(session.Environment(), editor.Options{
		Target:   screen,
		TabWidth: editorTabWidth(opts.mode, a.cfg.Editor.TabWidth),
		Logger:   a.logger,
	})
	ctrl, _, err := session.Register(ed)
	if err != nil {
		return err
	}
	// Opening through the controller puts the initial files in the log.
	for _, name := range opts.files {
		ctrl.DropFile(name)
	}

	p := pump.New(pump.Config{
		Backend:     screen,
		Controller:  ctrl,
		DoubleClick: time.Duration(a.cfg.Editor.DoubleClickMS) * time.Millisecond,
		TickRate:    time.Duration(a.cfg.Editor.TickMS) * time.Millisecond,
		Logger:      a.logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := a.serve(ctx, p.Run)
	restore()
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if runErr != nil {
		_ = a.logger.Error(logging.CategoryUI, "pump_failed", runErr.Error(), nil)
		return runErr
	}

	if opts.mode == replay.ModeRecord {
		if cerr := session.Close(); cerr != nil {
			return cerr
		}
		st := session.Stats()
		fmt.Fprintf(stderr, "recorded %d events (%d bytes) to %s\n", st.Events, st.Bytes, opts.logPath)
	}
	return nil
}
