package editor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/scribe/pkg/control"
	"github.com/odvcencio/scribe/pkg/replay"
	"github.com/odvcencio/scribe/pkg/ui/backend/sim"
	"github.com/odvcencio/scribe/pkg/ui/pump"
	"github.com/odvcencio/scribe/pkg/ui/terminal"
)

// tickingEnv advances its clock on every Now call.
type tickingEnv struct{ *memEnv }

func (t tickingEnv) Now() time.Time {
	t.now = t.now.Add(170 * time.Millisecond)
	return t.now
}

func noSave(string, []byte) error { return nil }

func TestRecordedSessionReplaysIdentically(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "session.bin")

	live := newMemEnv()
	live.files["doc/a.txt"] = "hello"
	live.files["doc/b.txt"] = "second file"
	live.clipboard = "pasted "

	recScreen := sim.New(40, 8)
	require.NoError(t, recScreen.Init())
	defer recScreen.Fini()

	rec, err := replay.Open(replay.Options{Mode: replay.ModeRecord, LogPath: logPath, Live: tickingEnv{live}})
	require.NoError(t, err)
	recEditor := New(rec.Environment(), Options{Target: recScreen, Save: noSave})
	wrapped, id, err := rec.Register(recEditor)
	require.NoError(t, err)
	assert.Equal(t, control.ID(0), id)

	p := pump.New(pump.Config{Backend: recScreen, Controller: wrapped})
	wrapped.SetSize(40, 8)
	wrapped.DropFile("doc/a.txt")
	for _, ev := range []terminal.Event{
		terminal.KeyEvent{Key: terminal.KeyEnd},
		terminal.KeyEvent{Key: terminal.KeyRune, Rune: '!'},
		terminal.KeyEvent{Key: terminal.KeyEnter},
		terminal.KeyEvent{Key: terminal.KeyRune, Rune: 'v', Ctrl: true},
		terminal.KeyEvent{Key: terminal.KeyRune, Rune: 'ü'},
		terminal.KeyEvent{Key: terminal.KeyRune, Rune: 'c', Ctrl: true},
		terminal.MouseEvent{X: 2, Y: 0, Button: terminal.MouseLeft, Action: terminal.MousePress, Held: terminal.HeldLeft},
		terminal.MouseEvent{X: 2, Y: 0, Button: terminal.MouseLeft, Action: terminal.MouseRelease},
		terminal.KeyEvent{Key: terminal.KeyRune, Rune: 'o', Ctrl: true},
		terminal.KeyEvent{Key: terminal.KeyDown},
		terminal.FocusEvent{Focused: false},
	} {
		p.Handle(ev)
	}
	want := recEditor.Snapshot()
	recScreen.Show()
	wantScreen := recScreen.Capture()
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Err())

	assert.Equal(t, "hello!\npasted ü", want.Text)
	assert.Equal(t, "doc", want.Browse)
	assert.Equal(t, "pasted ü", live.clipboard, "Ctrl+C copied the second line")

	// Change the world so any query that leaks past the log shows up.
	live.files["doc/a.txt"] = "changed"
	live.clipboard = "changed"

	for run := 0; run < 2; run++ {
		playScreen := sim.New(40, 8)
		require.NoError(t, playScreen.Init())

		play, err := replay.Open(replay.Options{Mode: replay.ModePlay, LogPath: logPath, Live: live})
		require.NoError(t, err)
		playEditor := New(play.Environment(), Options{Target: playScreen, Save: noSave})
		_, _, err = play.Register(playEditor)
		require.NoError(t, err)

		require.NoError(t, play.Play(context.Background()))
		require.NoError(t, play.Close())

		got := playEditor.Snapshot()
		assert.Equal(t, want, got, "run %d", run)
		playScreen.Show()
		assert.Equal(t, wantScreen, playScreen.Capture(), "run %d", run)
		playScreen.Fini()
	}
}
