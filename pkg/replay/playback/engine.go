// Package playback drives registered controllers from a recorded event log.
//
// Replay is single-threaded: one event is decoded, routed to its controller
// and fully handled before the next one is read. Any decode error, unknown
// controller id or unanswerable environment query stops the replay for good.
package playback

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/odvcencio/scribe/pkg/control"
	"github.com/odvcencio/scribe/pkg/env"
	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
	"github.com/odvcencio/scribe/pkg/logging"
	"github.com/odvcencio/scribe/pkg/replay/codec"
	"github.com/odvcencio/scribe/pkg/replay/eventlog"
	"github.com/odvcencio/scribe/pkg/replay/snapshot"
	"github.com/odvcencio/scribe/pkg/telemetry"
)

// State is the engine lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateExhausted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Observer sees every controller event just before it is dispatched.
type Observer func(offset int, ev codec.Event)

// Options configures an Engine.
type Options struct {
	Policy   snapshot.Policy
	Observer Observer
	Logger   *logging.Logger
	// Live takes over the environment once the log is exhausted, so the
	// application can keep running. Nil leaves every later query a miss.
	Live env.Environment
}

// Stats summarizes replay progress.
type Stats struct {
	Dispatched int64
	Offset     int
	Size       int
}

// Engine replays one log against one registry.
type Engine struct {
	log      *eventlog.Log
	registry *control.Registry
	opts     Options
	env      *Environment

	dispatching atomic.Bool

	mu         sync.Mutex
	state      State
	reader     *codec.Reader
	cache      *snapshot.Cache
	err        error
	dispatched int64
}

// New returns an idle engine. Controllers must be registered in the same
// order as during recording before Start is called.
func New(log *eventlog.Log, registry *control.Registry, opts Options) *Engine {
	return &Engine{
		log:      log,
		registry: registry,
		opts:     opts,
		env:      newEnvironment(),
	}
}

// Environment is what controllers must query during replay.
func (e *Engine) Environment() *Environment { return e.env }

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the error that failed the engine, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Cache returns the snapshot cache built by Start.
func (e *Engine) Cache() *snapshot.Cache {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache
}

// Stats reports progress so far.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Stats{Dispatched: e.dispatched, Size: e.log.Size()}
	if e.reader != nil {
		s.Offset = e.reader.Pos()
	}
	return s
}

// Start builds the snapshot cache and positions the cursor at offset 0.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		return scribeerrors.Newf(scribeerrors.ErrCodeReplayState, "cannot start replay in state %s", e.state)
	}

	cache, err := snapshot.Build(e.log, e.opts.Policy)
	if err != nil {
		return e.failLocked(err)
	}
	e.cache = cache
	e.env.setCache(cache)
	e.reader = e.log.Reader()
	// Queries recorded before the first controller event answer startup code.
	if err := e.primeFrom(e.reader.Clone()); err != nil {
		return e.failLocked(err)
	}
	e.state = StateRunning

	_ = e.opts.Logger.Info(logging.CategoryReplay, "replay_started", "", map[string]any{
		"bytes":       e.log.Size(),
		"controllers": e.registry.Len(),
		"policy":      e.opts.Policy.String(),
	})
	return nil
}

// Step dispatches the next controller event. Query records on the way are
// consumed. It returns io.EOF once the log is exhausted and the fatal error
// forever after a failure.
func (e *Engine) Step() error {
	if !e.dispatching.CompareAndSwap(false, true) {
		err := scribeerrors.New(scribeerrors.ErrCodeReentrant, "replay step started during a dispatch")
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.failLocked(err)
	}
	defer e.dispatching.Store(false)

	e.mu.Lock()
	switch e.state {
	case StateIdle:
		e.mu.Unlock()
		return scribeerrors.New(scribeerrors.ErrCodeReplayState, "replay not started")
	case StateExhausted:
		e.mu.Unlock()
		return io.EOF
	case StateFailed:
		err := e.err
		e.mu.Unlock()
		return err
	}

	offset, ev, target, err := e.nextLocked()
	if err != nil {
		defer e.mu.Unlock()
		if err == io.EOF {
			e.state = StateExhausted
			if e.opts.Live != nil {
				e.env.handOff(e.opts.Live)
			}
			_ = e.opts.Logger.Info(logging.CategoryReplay, "replay_exhausted", "", map[string]any{
				"dispatched": e.dispatched,
			})
			return io.EOF
		}
		return e.failLocked(err)
	}
	e.mu.Unlock()

	// Controllers run without the engine lock held so they can query the
	// environment and inspect engine state.
	if e.opts.Observer != nil {
		e.opts.Observer(offset, ev)
	}
	dispatch(target, ev)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateFailed {
		return e.err
	}
	if err := e.env.Err(); err != nil {
		return e.failLocked(err)
	}
	e.dispatched++
	telemetry.EventsDispatched.WithLabelValues(ev.Kind().String()).Inc()
	return nil
}

// nextLocked decodes the next controller event, primes the environment with
// the clipboard and time values that follow it and resolves its target.
func (e *Engine) nextLocked() (int, codec.Event, control.Controller, error) {
	r := e.reader
	for {
		if r.Done() {
			return 0, nil, nil, io.EOF
		}
		k, err := r.PeekKind()
		if err != nil {
			return 0, nil, nil, err
		}
		if !k.IsQuery() {
			break
		}
		if _, err := r.Skip(); err != nil {
			return 0, nil, nil, err
		}
	}

	offset := r.Pos()
	ev, err := r.Decode()
	if err != nil {
		return 0, nil, nil, err
	}
	if err := e.primeFrom(r.Clone()); err != nil {
		return 0, nil, nil, err
	}

	id := ev.(codec.Targeted).TargetID()
	target, err := e.registry.Lookup(id)
	if err != nil {
		return 0, nil, nil, err
	}
	return offset, ev, target, nil
}

func (e *Engine) primeFrom(peek *codec.Reader) error {
	var clips []string
	var times []int64
	for !peek.Done() {
		k, err := peek.PeekKind()
		if err != nil {
			return err
		}
		if !k.IsQuery() {
			break
		}
		ev, err := peek.Decode()
		if err != nil {
			return err
		}
		switch q := ev.(type) {
		case codec.GetClipboardText:
			clips = append(clips, q.Text)
		case codec.GetTime:
			times = append(times, q.Time)
		}
	}
	e.env.prime(clips, times)
	return nil
}

func (e *Engine) failLocked(err error) error {
	e.state = StateFailed
	e.err = err
	details := map[string]any{
		"code":       string(scribeerrors.GetCode(err)),
		"dispatched": e.dispatched,
	}
	if e.reader != nil {
		details["offset"] = e.reader.Pos()
	}
	_ = e.opts.Logger.Error(logging.CategoryReplay, "replay_failed", err.Error(), details)
	return err
}

// Run starts the engine if needed and steps until the log is exhausted.
// ctx is only checked between events.
func (e *Engine) Run(ctx context.Context) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "replay.run")
	span.SetAttributes(
		telemetry.AttrLogPath.String(e.log.Path()),
		telemetry.AttrLogBytes.Int(e.log.Size()),
	)
	defer func() {
		span.SetAttributes(telemetry.AttrEvents.Int64(e.Stats().Dispatched))
		telemetry.EndSpan(span, err, string(scribeerrors.GetCode(err)))
	}()

	if e.State() == StateIdle {
		if err := e.Start(); err != nil {
			return err
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch err := e.Step(); err {
		case nil:
		case io.EOF:
			return nil
		default:
			return err
		}
	}
}

func dispatch(c control.Controller, ev codec.Event) {
	switch v := ev.(type) {
	case codec.KeyboardButton:
		c.KeyboardButton(v.Button, v.Mod)
	case codec.KeyboardCharacter:
		c.KeyboardCharacter(v.Char, v.Mod)
	case codec.KeyboardUnicode:
		c.KeyboardUnicode(v.Char, v.Mod)
	case codec.Update:
		c.Update()
	case codec.Draw:
		c.Draw()
	case codec.MouseWheel:
		c.MouseWheel(v.X, v.Y, v.HDist, v.Dist, v.Mod)
	case codec.MouseDown:
		c.MouseDown(v.X, v.Y, v.Button, v.Mod, v.Clicks)
	case codec.MouseUp:
		c.MouseUp(v.X, v.Y, v.Button, v.Mod)
	case codec.MouseMove:
		c.MouseMove(v.X, v.Y, v.Buttons)
	case codec.LosesFocus:
		c.LosesFocus()
	case codec.GainsFocus:
		c.GainsFocus()
	case codec.AcceptsDragDrop:
		c.AcceptsDragDrop(v.Type)
	case codec.PerformDragDrop:
		c.PerformDragDrop(v.Type, v.X, v.Y)
	case codec.ClearDragDrop:
		c.ClearDragDrop(v.Type)
	case codec.SetSize:
		c.SetSize(v.Width, v.Height)
	case codec.CloseControlManager:
		c.CloseControlManager()
	case codec.RefreshWindow:
		c.RefreshWindow(v.RedrawNow)
	case codec.RefreshWindowRectangle:
		c.RefreshWindowRectangle(v.Rect, v.RedrawNow)
	case codec.DropFile:
		c.DropFile(v.Filename)
	}
}
