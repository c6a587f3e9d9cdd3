package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/odvcencio/scribe/pkg/editor"
	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
	"github.com/odvcencio/scribe/pkg/logging"
	"github.com/odvcencio/scribe/pkg/paths"
	"github.com/odvcencio/scribe/pkg/replay"
	"github.com/odvcencio/scribe/pkg/replay/codec"
	"github.com/odvcencio/scribe/pkg/replay/inspect"
	"github.com/odvcencio/scribe/pkg/replay/playback"
	"github.com/odvcencio/scribe/pkg/replay/snapshot"
	"github.com/odvcencio/scribe/pkg/telemetry"
	"github.com/odvcencio/scribe/pkg/ui/backend"
	"github.com/odvcencio/scribe/pkg/ui/backend/sim"
	"github.com/odvcencio/scribe/pkg/ui/pump"
)

// progressEvery is how many dispatched events separate progress events.
const progressEvery = 1000

func runPlayCommand(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	fs.SetOutput(stderr)
	logPath := fs.String("log", "", "event log to replay")
	width := fs.Int("width", cfg.Editor.Width, "screen width")
	height := fs.Int("height", cfg.Editor.Height, "screen height")
	policy := fs.String("policy", cfg.Replay.CachePolicy, "snapshot cache policy: sequential or latest")
	quiet := fs.Bool("quiet", false, "do not print the final screen")
	verbose := fs.Bool("verbose", false, "print each event as it is replayed")
	cont := fs.Bool("continue", false, "keep editing on the terminal once the log is exhausted")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: scribe play [flags] <log>")
		fmt.Fprintln(stderr, "Replays use the default tab width, as recordings do; editor.tab_width only applies to 'scribe edit'.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, exitUsage)
	}
	if *logPath == "" && fs.NArg() > 0 {
		*logPath = fs.Arg(0)
	}
	if *logPath == "" {
		return usageError("play needs -log <file>")
	}
	if *width <= 0 || *height <= 1 {
		return usageError("play needs a screen of at least 1x2")
	}
	pol, err := snapshot.ParsePolicy(*policy)
	if err != nil {
		return withExitCode(err, exitUsage)
	}

	if *cont && !isInteractive() {
		return usageError("play -continue needs an interactive terminal")
	}

	id := ulid.Make().String()
	a, err := openApp(id)
	if err != nil {
		return err
	}
	defer a.Close()

	var screen backend.Backend
	var headless *sim.Backend
	if *cont {
		if screen, err = newTerminal(); err != nil {
			return fmt.Errorf("opening terminal: %w", err)
		}
	} else {
		headless = sim.New(*width, *height)
		screen = headless
	}
	if err := screen.Init(); err != nil {
		return err
	}
	var finiOnce sync.Once
	restore := func() { finiOnce.Do(screen.Fini) }
	defer restore()

	var dispatched int
	observer := playback.Observer(func(offset int, ev codec.Event) {
		if *verbose {
			fmt.Fprintf(stderr, "%8d  %s\n", offset, inspect.Describe(ev))
		}
		dispatched++
		if dispatched%progressEvery == 0 {
			a.hub.Publish(telemetry.Event{Type: telemetry.EventReplayProgress, SessionID: id, Data: map[string]any{
				"dispatched": dispatched,
				"offset":     offset,
			}})
		}
	})

	session, err := replay.Open(replay.Options{
		ID:       id,
		Mode:     replay.ModePlay,
		LogPath:  paths.ExpandHome(*logPath),
		Policy:   pol,
		Observer: observer,
		Logger:   a.logger,
		Hub:      a.hub,
	})
	if err != nil {
		return withExitCode(err, exitFatal)
	}
	defer session.Close()

	// Saves are outputs; a replay never touches the files the session wrote.
	// After hand-off they reach the disk again.
	var replaying atomic.Bool
	replaying.Store(true)
	ed := editor.New(session.Environment(), editor.Options{
		Target:   screen,
		TabWidth: editorTabWidth(replay.ModePlay, a.cfg.Editor.TabWidth),
		Logger:   a.logger,
		Save: func(path string, data []byte) error {
			if replaying.Load() {
				return nil
			}
			return os.WriteFile(path, data, 0o644)
		},
	})
	ctrl, _, err := session.Register(ed)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var handedOff atomic.Bool
	playErr := a.serve(ctx, func(ctx context.Context) error {
		if err := session.Play(ctx); err != nil || !*cont {
			return err
		}
		replaying.Store(false)
		handedOff.Store(true)
		_ = a.logger.Info(logging.CategoryReplay, "replay_handoff", "", map[string]any{"log": *logPath})
		return pump.New(pump.Config{
			Backend:     screen,
			Controller:  ctrl,
			DoubleClick: time.Duration(a.cfg.Editor.DoubleClickMS) * time.Millisecond,
			TickRate:    time.Duration(a.cfg.Editor.TickMS) * time.Millisecond,
			Logger:      a.logger,
		}).Run(ctx)
	})
	if headless != nil && !*quiet {
		headless.Show()
		fmt.Fprintln(stdout, screenText(headless, *height))
	}
	restore()
	if handedOff.Load() {
		if errors.Is(playErr, context.Canceled) {
			playErr = nil
		}
		if playErr != nil {
			_ = a.logger.Error(logging.CategoryUI, "pump_failed", playErr.Error(), nil)
			return playErr
		}
	}
	if playErr != nil {
		if scribeerrors.IsFatal(playErr) || errors.Is(playErr, context.Canceled) {
			return withExitCode(playErr, exitFatal)
		}
		return playErr
	}
	st := session.Stats()
	fmt.Fprintf(stderr, "replayed %d events (%d bytes) from %s\n", st.Events, st.Bytes, *logPath)
	return nil
}

// screenText returns the screen rows with trailing blank rows dropped.
func screenText(screen *sim.Backend, height int) string {
	rows := make([]string, 0, height)
	for y := 0; y < height; y++ {
		rows = append(rows, screen.Line(y))
	}
	for len(rows) > 0 && rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}
	return strings.Join(rows, "\n")
}
