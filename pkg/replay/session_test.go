package replay

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/scribe/pkg/control"
	"github.com/odvcencio/scribe/pkg/control/controltest"
	"github.com/odvcencio/scribe/pkg/env"
	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
	"github.com/odvcencio/scribe/pkg/replay/eventlog"
	"github.com/odvcencio/scribe/pkg/replay/record"
	"github.com/odvcencio/scribe/pkg/telemetry"
)

type stubEnv struct{ clip string }

func (s *stubEnv) ClipboardText() string { return s.clip }
func (s *stubEnv) Now() time.Time        { return time.Unix(100, 0) }
func (s *stubEnv) ReadFile(string) ([]byte, error) {
	return []byte("content"), nil
}
func (s *stubEnv) ListDirectory(string) (env.Listing, error) {
	return env.Listing{}, nil
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{"": ModeOff, "off": ModeOff, "Record": ModeRecord, "play": ModePlay, "replay": ModePlay}
	for in, want := range tests {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("both")
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeConfigInvalid))
	assert.Equal(t, "play", ModePlay.String())
}

func TestRecordThenPlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.evlog")
	hub := telemetry.NewHub()
	defer hub.Close()
	events, unsub := hub.Subscribe()
	defer unsub()

	rec, err := Open(Options{Mode: ModeRecord, LogPath: path, Live: &stubEnv{clip: "abc"}, Hub: hub})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID())

	recSpy := &controltest.Spy{}
	var clips []string
	recSpy.Hook = func(c controltest.Call) {
		if c.Method == "KeyboardCharacter" {
			clips = append(clips, rec.Environment().ClipboardText())
		}
	}
	wrapped, id, err := rec.Register(recSpy)
	require.NoError(t, err)
	assert.Equal(t, control.ID(0), id)
	assert.IsType(t, &record.Interceptor{}, wrapped)

	wrapped.MouseDown(10, 20, control.MouseLeft, 0, 1)
	wrapped.MouseUp(10, 20, control.MouseLeft, 0)
	wrapped.KeyboardCharacter('a', 0)

	stats := rec.Stats()
	assert.EqualValues(t, 4, stats.Events, "three controller events and one clipboard query")
	assert.Equal(t, 1, stats.Registered)
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())

	var types []telemetry.EventType
	for len(types) < 2 {
		select {
		case ev := <-events:
			types = append(types, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for hub events")
		}
	}
	assert.Equal(t, []telemetry.EventType{telemetry.EventRecordStarted, telemetry.EventRecordFinished}, types)

	play, err := Open(Options{Mode: ModePlay, LogPath: path})
	require.NoError(t, err)
	defer play.Close()

	playSpy := &controltest.Spy{}
	var replayed []string
	playSpy.Hook = func(c controltest.Call) {
		if c.Method == "KeyboardCharacter" {
			replayed = append(replayed, play.Environment().ClipboardText())
		}
	}
	same, _, err := play.Register(playSpy)
	require.NoError(t, err)
	assert.Same(t, playSpy, same)

	require.NoError(t, play.Play(context.Background()))
	assert.Equal(t, recSpy.Calls(), playSpy.Calls())
	assert.Equal(t, []string{"abc"}, clips)
	assert.Equal(t, clips, replayed)
	assert.EqualValues(t, 3, play.Stats().Events)
	assert.NotNil(t, play.Engine())
	assert.NotNil(t, play.Log())
	assert.NoError(t, play.Err())
}

func TestPlayFailureIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.evlog")
	hub := telemetry.NewHub()
	defer hub.Close()
	events, unsub := hub.Subscribe()
	defer unsub()

	// A log referencing a controller that is never registered.
	rec, err := Open(Options{Mode: ModeRecord, LogPath: path, Live: &stubEnv{}})
	require.NoError(t, err)
	c, _, err := rec.Register(&controltest.Spy{})
	require.NoError(t, err)
	c.Draw()
	require.NoError(t, rec.Close())

	play, err := Open(Options{Mode: ModePlay, LogPath: path, Hub: hub})
	require.NoError(t, err)
	err = play.Play(context.Background())
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeControllerRange))
	assert.Equal(t, err, play.Err())

	var last telemetry.Event
	for last.Type != telemetry.EventReplayFailed {
		select {
		case last = <-events:
		case <-time.After(time.Second):
			t.Fatal("no failure event published")
		}
	}
	assert.Equal(t, "CONTROLLER_RANGE", last.Data["code"])
}

func TestPlayHandsOffToLiveEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.evlog")
	rec, err := Open(Options{Mode: ModeRecord, LogPath: path, Live: &stubEnv{}})
	require.NoError(t, err)
	c, _, err := rec.Register(&controltest.Spy{})
	require.NoError(t, err)
	c.Draw()
	require.NoError(t, rec.Close())

	play, err := Open(Options{Mode: ModePlay, LogPath: path, Live: &stubEnv{clip: "live"}})
	require.NoError(t, err)
	defer play.Close()
	_, _, err = play.Register(&controltest.Spy{})
	require.NoError(t, err)
	require.NoError(t, play.Play(context.Background()))

	// x was never read during recording, so only the live environment can answer.
	b, err := play.Environment().ReadFile("x")
	require.NoError(t, err)
	assert.False(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeCacheMiss))
	assert.Equal(t, "content", string(b))
	assert.Equal(t, "live", play.Environment().ClipboardText())
	assert.NoError(t, play.Err())
}

type brokenFile struct{}

func (brokenFile) Write([]byte) (int, error) { return 0, errors.New("device gone") }
func (brokenFile) Sync() error               { return nil }
func (brokenFile) Close() error              { return nil }

func TestRecordFailureGoesToHandler(t *testing.T) {
	var fatal []error
	s, err := Open(Options{
		Mode:    ModeRecord,
		LogPath: "unused.evlog",
		Live:    &stubEnv{},
		Open:    func(string, bool) (eventlog.File, error) { return brokenFile{}, nil },
		OnFatal: func(err error) { fatal = append(fatal, err) },
	})
	require.NoError(t, err)

	spy := &controltest.Spy{}
	c, _, err := s.Register(spy)
	require.NoError(t, err)
	c.Update()

	require.Len(t, fatal, 1)
	assert.True(t, scribeerrors.IsCode(fatal[0], scribeerrors.ErrCodeLogIO))
	assert.Empty(t, spy.Calls())
	assert.Equal(t, fatal[0], s.Err())
}

func TestOffModePassesThrough(t *testing.T) {
	live := &stubEnv{clip: "live"}
	s, err := Open(Options{Mode: ModeOff, Live: live})
	require.NoError(t, err)
	defer s.Close()

	spy := &controltest.Spy{}
	c, _, err := s.Register(spy)
	require.NoError(t, err)
	assert.Same(t, spy, c)
	assert.Same(t, live, s.Environment())

	err = s.Play(context.Background())
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeReplayState))
}

func TestOpenValidatesLogPath(t *testing.T) {
	_, err := Open(Options{Mode: ModeRecord})
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeInvalidInput))
	_, err = Open(Options{Mode: ModePlay})
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeInvalidInput))
	_, err = Open(Options{Mode: ModePlay, LogPath: filepath.Join(t.TempDir(), "none.evlog")})
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogIO))
}
