// Package replay wires the record and replay pieces into a Session: the one
// object a process creates to decide whether controllers are recorded,
// replayed or left alone.
package replay

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/odvcencio/scribe/pkg/control"
	"github.com/odvcencio/scribe/pkg/env"
	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
	"github.com/odvcencio/scribe/pkg/logging"
	"github.com/odvcencio/scribe/pkg/replay/eventlog"
	"github.com/odvcencio/scribe/pkg/replay/playback"
	"github.com/odvcencio/scribe/pkg/replay/record"
	"github.com/odvcencio/scribe/pkg/replay/snapshot"
	"github.com/odvcencio/scribe/pkg/telemetry"
)

// Mode selects what a session does with controller input.
type Mode int

const (
	ModeOff Mode = iota
	ModeRecord
	ModePlay
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeRecord:
		return "record"
	case ModePlay:
		return "play"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a config value. Empty means off.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "none":
		return ModeOff, nil
	case "record":
		return ModeRecord, nil
	case "play", "replay":
		return ModePlay, nil
	default:
		return ModeOff, scribeerrors.Newf(scribeerrors.ErrCodeConfigInvalid, "unknown replay mode %q", s).
			WithRemediation("use one of: off, record, play")
	}
}

// Options configures a Session.
type Options struct {
	// ID names the session. Defaults to a fresh ULID.
	ID      string
	Mode    Mode
	LogPath string

	// Record mode.
	Sync    bool
	Append  bool
	Open    eventlog.OpenFunc
	OnFatal record.FatalHandler

	// Play mode.
	Policy   snapshot.Policy
	Observer playback.Observer

	// Live answers queries outside play mode, and in play mode once the log
	// is exhausted. Defaults to env.NewOS().
	Live   env.Environment
	Logger *logging.Logger
	Hub    *telemetry.Hub
}

// Stats summarizes a session.
type Stats struct {
	Mode       Mode
	Events     int64
	Bytes      int64
	Registered int
}

// Session owns the controller registry and, depending on the mode, the log
// writer or the replay engine. A process uses exactly one Session.
type Session struct {
	id       string
	opts     Options
	registry *control.Registry
	environ  env.Environment

	writer *eventlog.Writer
	log    *eventlog.Log
	engine *playback.Engine

	mu     sync.Mutex
	closed bool
	failed error
}

// Open prepares a session. Record mode creates the log file; play mode loads
// it completely before returning.
func Open(opts Options) (*Session, error) {
	if opts.Live == nil {
		opts.Live = env.NewOS()
	}
	if opts.ID == "" {
		opts.ID = ulid.Make().String()
	}
	s := &Session{
		id:       opts.ID,
		opts:     opts,
		registry: control.NewRegistry(),
	}

	switch opts.Mode {
	case ModeOff:
		s.environ = opts.Live
	case ModeRecord:
		if opts.LogPath == "" {
			return nil, scribeerrors.New(scribeerrors.ErrCodeInvalidInput, "record mode needs a log path")
		}
		w, err := eventlog.Create(opts.LogPath, eventlog.Options{Sync: opts.Sync, Append: opts.Append, Open: opts.Open})
		if err != nil {
			return nil, err
		}
		s.writer = w
		s.environ = record.NewEnvironment(opts.Live, w, s.fatal)
	case ModePlay:
		if opts.LogPath == "" {
			return nil, scribeerrors.New(scribeerrors.ErrCodeInvalidInput, "play mode needs a log path")
		}
		log, err := eventlog.Load(opts.LogPath)
		if err != nil {
			return nil, err
		}
		s.log = log
		s.engine = playback.New(log, s.registry, playback.Options{
			Policy:   opts.Policy,
			Observer: opts.Observer,
			Logger:   opts.Logger,
			Live:     opts.Live,
		})
		s.environ = s.engine.Environment()
	default:
		return nil, scribeerrors.Newf(scribeerrors.ErrCodeInvalidInput, "unsupported mode %s", opts.Mode)
	}

	telemetry.ActiveSessions.WithLabelValues(opts.Mode.String()).Inc()
	_ = opts.Logger.Info(logging.CategoryRegistry, "session_opened", "", map[string]any{
		"id":   s.id,
		"mode": opts.Mode.String(),
		"log":  opts.LogPath,
	})
	if opts.Mode == ModeRecord {
		opts.Hub.Publish(telemetry.Event{Type: telemetry.EventRecordStarted, SessionID: s.id, Data: map[string]any{"log": opts.LogPath}})
	}
	return s, nil
}

// fatal handles a lost record. The error is logged and published, then
// handed to the configured handler.
func (s *Session) fatal(err error) {
	s.mu.Lock()
	if s.failed == nil {
		s.failed = err
	}
	s.mu.Unlock()

	_ = s.opts.Logger.Error(logging.CategoryRecord, "append_failed", err.Error(), map[string]any{
		"code": string(scribeerrors.GetCode(err)),
	})
	s.opts.Hub.Publish(telemetry.Event{Type: telemetry.EventRecordFailed, SessionID: s.id, Data: map[string]any{"error": err.Error()}})

	handler := s.opts.OnFatal
	if handler == nil {
		handler = record.PanicOnFatal
	}
	handler(err)
}

// ID is the session's unique id.
func (s *Session) ID() string { return s.id }

// Mode returns the session mode.
func (s *Session) Mode() Mode { return s.opts.Mode }

// Registry exposes the controller registry.
func (s *Session) Registry() *control.Registry { return s.registry }

// Environment is what every controller must use for queries.
func (s *Session) Environment() env.Environment { return s.environ }

// Engine returns the replay engine in play mode, nil otherwise.
func (s *Session) Engine() *playback.Engine { return s.engine }

// Log returns the loaded log in play mode, nil otherwise.
func (s *Session) Log() *eventlog.Log { return s.log }

// Register adds c to the registry. In record mode the returned controller is
// the recording decorator, which the windowing layer must call instead of c.
// Controllers must be registered in the same order in record and play runs.
func (s *Session) Register(c control.Controller) (control.Controller, control.ID, error) {
	id, err := s.registry.Register(c)
	if err != nil {
		return nil, 0, err
	}
	_ = s.opts.Logger.Debug(logging.CategoryRegistry, "controller_registered", "", map[string]any{
		"id":   int(id),
		"type": fmt.Sprintf("%T", c),
	})
	if s.opts.Mode == ModeRecord {
		return record.NewInterceptor(id, c, s.writer, s.fatal), id, nil
	}
	return c, id, nil
}

// Play replays the whole log. Only valid in play mode. On success the
// environment hands off to Live so the application can continue from the
// replayed state.
func (s *Session) Play(ctx context.Context) error {
	if s.opts.Mode != ModePlay {
		return scribeerrors.Newf(scribeerrors.ErrCodeReplayState, "cannot play in %s mode", s.opts.Mode)
	}
	s.opts.Hub.Publish(telemetry.Event{Type: telemetry.EventReplayStarted, SessionID: s.id, Data: map[string]any{
		"log":   s.opts.LogPath,
		"bytes": s.log.Size(),
	}})

	err := s.engine.Run(ctx)
	stats := s.engine.Stats()
	data := map[string]any{"dispatched": stats.Dispatched, "offset": stats.Offset}
	if err != nil {
		data["error"] = err.Error()
		data["code"] = string(scribeerrors.GetCode(err))
		s.opts.Hub.Publish(telemetry.Event{Type: telemetry.EventReplayFailed, SessionID: s.id, Data: data})
		return err
	}
	s.opts.Hub.Publish(telemetry.Event{Type: telemetry.EventReplayFinished, SessionID: s.id, Data: data})
	_ = s.opts.Logger.Info(logging.CategoryReplay, "replay_finished", "", data)
	return nil
}

// Err returns the first fatal recording error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed != nil {
		return s.failed
	}
	if s.engine != nil {
		return s.engine.Err()
	}
	return nil
}

// Stats reports events and bytes written (record) or dispatched (play).
func (s *Session) Stats() Stats {
	st := Stats{Mode: s.opts.Mode, Registered: s.registry.Len()}
	switch {
	case s.writer != nil:
		ws := s.writer.Stats()
		st.Events, st.Bytes = ws.Events, ws.Bytes
	case s.engine != nil:
		es := s.engine.Stats()
		st.Events, st.Bytes = es.Dispatched, int64(es.Offset)
	}
	return st
}

// Close flushes and closes the log in record mode. Safe to call twice.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	telemetry.ActiveSessions.WithLabelValues(s.opts.Mode.String()).Dec()

	var err error
	if s.writer != nil {
		err = s.writer.Close()
		st := s.Stats()
		data := map[string]any{"events": st.Events, "bytes": st.Bytes}
		if err == nil {
			s.opts.Hub.Publish(telemetry.Event{Type: telemetry.EventRecordFinished, SessionID: s.id, Data: data})
		}
		_ = s.opts.Logger.Info(logging.CategoryRecord, "record_closed", "", data)
	}
	return err
}
