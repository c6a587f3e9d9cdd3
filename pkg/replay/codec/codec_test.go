package codec

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/scribe/pkg/control"
	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
)

// sampleEvents covers every kind, including boundary values.
func sampleEvents() []Event {
	return []Event{
		KeyboardButton{Target: 0, Button: control.KeyEnter, Mod: control.ModNone},
		KeyboardButton{Target: 254, Button: math.MaxInt32, Mod: 0xff},
		KeyboardCharacter{Target: 1, Char: 'a', Mod: control.ModNone},
		KeyboardCharacter{Target: 1, Char: 0xff, Mod: control.ModShift | control.ModCtrl},
		KeyboardUnicode{Target: 2, Char: control.NewUnicode('😀'), Mod: control.ModAlt},
		KeyboardUnicode{Target: 2, Char: control.NewUnicode('é')},
		Update{Target: 3},
		Draw{Target: 3},
		MouseWheel{Target: 0, X: -5, Y: 7, HDist: 0.5, Dist: -3.25, Mod: control.ModCtrl},
		MouseWheel{Target: 0, X: math.MinInt32, Y: math.MaxInt32, HDist: math.Inf(1), Dist: math.SmallestNonzeroFloat64},
		MouseDown{Target: 0, X: 10, Y: 20, Button: control.MouseLeft, Mod: control.ModNone, Clicks: 1},
		MouseDown{Target: 0, X: 0, Y: 0, Button: control.MouseRight, Mod: control.ModNone, Clicks: math.MaxInt32},
		MouseUp{Target: 0, X: 10, Y: 20, Button: control.MouseLeft, Mod: control.ModNone},
		MouseMove{Target: 9, X: 1, Y: 2, Buttons: 3},
		LosesFocus{Target: 4},
		GainsFocus{Target: 4},
		AcceptsDragDrop{Target: 5, Type: control.DragFiles},
		PerformDragDrop{Target: 5, Type: control.DragText, X: 11, Y: 12},
		ClearDragDrop{Target: 5, Type: control.DragNone},
		SetSize{Target: 6, Width: 1024, Height: 768.5},
		CloseControlManager{Target: 6},
		RefreshWindow{Target: 7, RedrawNow: true},
		RefreshWindow{Target: 7, RedrawNow: false},
		RefreshWindowRectangle{Target: 7, Rect: control.Rect{X: 1, Y: 2, W: 30, H: 40}, RedrawNow: true},
		DropFile{Target: 8, Filename: "/tmp/notes.txt"},
		DropFile{Target: 8, Filename: ""},
		GetClipboardText{Text: "clip ✂"},
		GetClipboardText{Text: ""},
		GetTime{Time: 1700000000123456789},
		GetTime{Time: math.MinInt64},
		GetReadFile{Filename: "a.txt", Code: 0, Content: []byte("hello")},
		GetReadFile{Filename: "empty.txt", Code: 0, Content: []byte{}},
		GetReadFile{Filename: "missing.txt", Code: 1, Content: []byte{}},
		GetDirectoryFiles{Dir: "/src", Dirs: []string{"a", "b"}, Files: []string{"main.go"}, Code: 0},
		GetDirectoryFiles{Dir: "/empty", Dirs: []string{}, Files: []string{}},
		GetDirectoryFiles{Dir: "/denied", Dirs: []string{}, Files: []string{}, Code: 2},
	}
}

func encodeAll(t *testing.T, events []Event) []byte {
	t.Helper()
	var w Writer
	for _, ev := range events {
		require.NoError(t, w.Encode(ev), "encode %T", ev)
	}
	return w.Bytes()
}

func TestRoundTripEveryKind(t *testing.T) {
	seen := map[Kind]bool{}
	for _, ev := range sampleEvents() {
		seen[ev.Kind()] = true
		t.Run(ev.Kind().String(), func(t *testing.T) {
			data, err := Encode(ev)
			require.NoError(t, err)

			r := NewReader(data)
			got, err := r.Decode()
			require.NoError(t, err)
			assert.Equal(t, ev, got)
			assert.True(t, r.Done(), "decoder must consume exactly the encoded bytes")
		})
	}
	for _, k := range Kinds() {
		assert.True(t, seen[k], "no sample for %s", k)
	}
}

func TestSkipMatchesDecode(t *testing.T) {
	data := encodeAll(t, sampleEvents())

	dec := NewReader(data)
	skip := NewReader(data)
	for !dec.Done() {
		ev, err := dec.Decode()
		require.NoError(t, err)
		k, err := skip.Skip()
		require.NoError(t, err)
		assert.Equal(t, ev.Kind(), k)
		assert.Equal(t, dec.Pos(), skip.Pos(), "skip of %s diverged", k)
	}
	assert.True(t, skip.Done())
}

func TestCursorAdvancesBySumOfSizes(t *testing.T) {
	events := sampleEvents()
	data := encodeAll(t, events)

	total := 0
	for _, ev := range events {
		total += Size(ev)
	}
	require.Equal(t, len(data), total)

	r := NewReader(data)
	prev := 0
	for i := 0; !r.Done(); i++ {
		_, err := r.Decode()
		require.NoError(t, err)
		assert.Equal(t, prev+Size(events[i]), r.Pos())
		assert.Greater(t, r.Pos(), prev, "cursor must be monotonic")
		prev = r.Pos()
	}
}

func TestDecodeTwiceIsIdentical(t *testing.T) {
	data := encodeAll(t, sampleEvents())
	decode := func() []Event {
		var out []Event
		r := NewReader(data)
		for !r.Done() {
			ev, err := r.Decode()
			require.NoError(t, err)
			out = append(out, ev)
		}
		return out
	}
	assert.Equal(t, decode(), decode())
}

func TestTruncationIsFatalAtEveryPrefix(t *testing.T) {
	for _, ev := range sampleEvents() {
		data, err := Encode(ev)
		require.NoError(t, err)
		for cut := 1; cut < len(data); cut++ {
			_, err := NewReader(data[:cut]).Decode()
			require.Error(t, err, "%s truncated to %d bytes decoded", ev.Kind(), cut)
			assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogTruncated),
				"%s cut at %d: %v", ev.Kind(), cut, err)
			assert.True(t, scribeerrors.IsFatal(err))

			_, err = NewReader(data[:cut]).Skip()
			assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogTruncated),
				"skip %s cut at %d: %v", ev.Kind(), cut, err)
		}
	}
}

func TestUnknownKindIsCorrupt(t *testing.T) {
	for _, b := range []byte{0x00, byte(kindEnd), 0xff} {
		_, err := NewReader([]byte{b, 0, 0, 0}).Decode()
		assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogCorrupt), "kind 0x%02x: %v", b, err)

		_, err = NewReader([]byte{b}).Skip()
		assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogCorrupt))
	}
}

func TestStringLengthBeyondBufferIsTruncated(t *testing.T) {
	data := []byte{byte(KindDropFile), 0}
	data = binary.LittleEndian.AppendUint64(data, math.MaxUint64)
	data = append(data, "abc"...)

	_, err := NewReader(data).Decode()
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogTruncated), "%v", err)
}

func TestDirectoryCountIsBoundsChecked(t *testing.T) {
	var w Writer
	w.Byte(byte(KindGetDirectoryFiles))
	w.String("/d")
	w.Int64(1 << 40)

	_, err := NewReader(w.Bytes()).Decode()
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogTruncated), "%v", err)

	w.Reset()
	w.Byte(byte(KindGetDirectoryFiles))
	w.String("/d")
	w.Int64(-1)
	_, err = NewReader(w.Bytes()).Decode()
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogCorrupt), "%v", err)
}

func TestUnicodeLengthValidated(t *testing.T) {
	_, err := Encode(KeyboardUnicode{Char: control.Unicode{Len: 5}})
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeInvalidInput))

	bad := []byte{byte(KindKeyboardUnicode), 0, 0, 'a', 0, 0, 0, 0}
	_, err = NewReader(bad).Decode()
	assert.True(t, scribeerrors.IsCode(err, scribeerrors.ErrCodeLogCorrupt), "%v", err)
}

func TestEncodeNilLeavesBufferUntouched(t *testing.T) {
	var w Writer
	w.Byte(1)
	require.Error(t, w.Encode(nil))
	assert.Equal(t, 1, w.Len())
}

func TestMouseDownWireLayout(t *testing.T) {
	data, err := Encode(MouseDown{Target: 3, X: 10, Y: 20, Button: control.MouseLeft, Mod: control.ModShift, Clicks: 2})
	require.NoError(t, err)

	want := []byte{
		byte(KindMouseDown), 3,
		10, 0, 0, 0,
		20, 0, 0, 0,
		1, 0, 0, 0,
		1,
		2, 0, 0, 0,
	}
	assert.Equal(t, want, data)
}

func TestGetReadFileWireLayout(t *testing.T) {
	data, err := Encode(GetReadFile{Filename: "a", Code: 0, Content: []byte("hi")})
	require.NoError(t, err)

	want := []byte{byte(KindGetReadFile)}
	want = binary.LittleEndian.AppendUint64(want, 1)
	want = append(want, 'a')
	want = append(want, 0, 0, 0, 0)
	want = binary.LittleEndian.AppendUint64(want, 2)
	want = append(want, 'h', 'i')
	assert.Equal(t, want, data)
}

func TestKindClassification(t *testing.T) {
	queries := 0
	for _, k := range Kinds() {
		assert.True(t, k.Valid())
		assert.NotContains(t, k.String(), "Kind(")
		if k.IsQuery() {
			queries++
			assert.False(t, k.HasTarget())
		} else {
			assert.True(t, k.HasTarget())
		}
	}
	assert.Equal(t, 4, queries)
	assert.Equal(t, "Kind(0x00)", Kind(0).String())
	assert.False(t, Kind(0).Valid())
}

func TestPeekKindDoesNotAdvance(t *testing.T) {
	data := encodeAll(t, []Event{Draw{Target: 1}})
	r := NewReader(data)
	k, err := r.PeekKind()
	require.NoError(t, err)
	assert.Equal(t, KindDraw, k)
	assert.Equal(t, 0, r.Pos())
}
