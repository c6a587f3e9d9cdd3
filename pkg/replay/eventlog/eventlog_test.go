package eventlog

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/scribe/pkg/control"
	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
	"github.com/odvcencio/scribe/pkg/replay/codec"
)

type failingFile struct {
	failAfter int
	writes    int
	syncs     int
	closed    bool
}

func (f *failingFile) Write(p []byte) (int, error) {
	f.writes++
	if f.writes > f.failAfter {
		return 0, errors.New("no space left on device")
	}
	return len(p), nil
}

func (f *failingFile) Sync() error  { f.syncs++; return nil }
func (f *failingFile) Close() error { f.closed = true; return nil }

func TestAppendThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.evlog")
	w, err := Create(path, Options{})
	require.NoError(t, err)

	events := []codec.Event{
		codec.MouseDown{Target: 0, X: 10, Y: 20, Button: control.MouseLeft, Clicks: 1},
		codec.GetClipboardText{Text: "hello"},
		codec.KeyboardCharacter{Target: 0, Char: 'a'},
	}
	for _, ev := range events {
		require.NoError(t, w.Append(ev))
	}
	stats := w.Stats()
	require.NoError(t, w.Close())

	assert.EqualValues(t, 3, stats.Events)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, info.Size(), stats.Bytes)

	log, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, log.Path())
	got, err := log.Events()
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestAppendIsVisibleBeforeClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.evlog")
	w, err := Create(path, Options{Sync: true})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Append(codec.Update{Target: 2}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(codec.KindUpdate), 2}, data)
}

func TestCreateTruncatesUnlessAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.evlog")
	for i := 0; i < 2; i++ {
		w, err := Create(path, Options{})
		require.NoError(t, err)
		require.NoError(t, w.Append(codec.Draw{}))
		require.NoError(t, w.Close())
	}
	log, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, log.Size())

	w, err := Create(path, Options{Append: true})
	require.NoError(t, err)
	require.NoError(t, w.Append(codec.Draw{}))
	require.NoError(t, w.Close())

	log, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, log.Size())
}

func TestWriteFailureIsLatched(t *testing.T) {
	f := &failingFile{failAfter: 1}
	w := NewWriter(f, Options{Sync: true})

	require.NoError(t, w.Append(codec.Draw{}))
	assert.Equal(t, 1, f.syncs)

	err := w.Append(codec.Update{})
	require.Error(t, err)
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogIO))
	assert.True(t, scribeerrors.IsFatal(err))

	again := w.Append(codec.Draw{})
	assert.Same(t, err, again, "later appends return the latched error")
	assert.Same(t, err, w.Err())
	assert.EqualValues(t, 1, w.Stats().Events)

	assert.NoError(t, w.Close())
	assert.True(t, f.closed)
}

func TestEncodeErrorDoesNotLatch(t *testing.T) {
	w := NewWriter(&failingFile{failAfter: 10}, Options{})
	err := w.Append(codec.KeyboardUnicode{Char: control.Unicode{Len: 9}})
	require.Error(t, err)
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeInvalidInput))
	assert.NoError(t, w.Append(codec.Draw{}))
}

func TestAppendAfterClose(t *testing.T) {
	w := NewWriter(&failingFile{failAfter: 10}, Options{})
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	err := w.Append(codec.Draw{})
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogIO))
}

func TestOpenFailureIsLogIO(t *testing.T) {
	_, err := Create("unused", Options{Open: func(string, bool) (File, error) {
		return nil, os.ErrPermission
	}})
	require.Error(t, err)
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogIO))
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.evlog"))
	require.Error(t, err)
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogIO))
}

func TestConcurrentAppendsNeverInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conc.evlog")
	w, err := Create(path, Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = w.Append(codec.DropFile{Target: control.ID(g), Filename: "file-with-a-long-name.txt"})
			}
		}(g)
	}
	wg.Wait()
	require.NoError(t, w.Close())

	log, err := Load(path)
	require.NoError(t, err)
	events, err := log.Events()
	require.NoError(t, err)
	assert.Len(t, events, 400)
}

func TestEntriesStopAtCorruption(t *testing.T) {
	good, err := codec.Encode(codec.GainsFocus{Target: 1})
	require.NoError(t, err)
	log := FromBytes(append(good, 0xEE))

	entries, err := log.Entries()
	require.Error(t, err)
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogCorrupt))
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Offset)

	_, err = log.Events()
	assert.Error(t, err)
}

func TestFromBytesCopies(t *testing.T) {
	src := []byte{byte(codec.KindDraw), 0}
	log := FromBytes(src)
	src[0] = 0xFF
	ev, err := log.Reader().Decode()
	require.NoError(t, err)
	assert.Equal(t, codec.Draw{}, ev)
}
