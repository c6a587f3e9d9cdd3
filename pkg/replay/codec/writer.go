package codec

import (
	"encoding/binary"
	"math"

	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
)

// Writer appends encoded records to an in-memory buffer.
type Writer struct {
	buf []byte
}

// Bytes returns the encoded bytes. The slice aliases the writer's buffer
// until the next Reset.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of encoded bytes.
func (w *Writer) Len() int { return len(w.buf) }

// Reset discards the buffer contents, keeping capacity.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

func (w *Writer) Byte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

func (w *Writer) Int32(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

func (w *Writer) Int64(v int64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
}

func (w *Writer) Float64(v float64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// String writes a length-prefixed byte string.
func (w *Writer) String(s string) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// Blob writes a length-prefixed byte slice.
func (w *Writer) Blob(b []byte) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// Encode appends one record. Nothing is written when an error is returned.
func (w *Writer) Encode(ev Event) error {
	if ev == nil {
		return scribeerrors.New(scribeerrors.ErrCodeInvalidInput, "cannot encode nil event")
	}
	if u, ok := ev.(KeyboardUnicode); ok && (u.Char.Len == 0 || u.Char.Len > 4) {
		return scribeerrors.Newf(scribeerrors.ErrCodeInvalidInput, "unicode length %d out of range", u.Char.Len)
	}

	start := len(w.buf)
	w.Byte(byte(ev.Kind()))
	if t, ok := ev.(Targeted); ok {
		w.Byte(byte(t.TargetID()))
	}

	switch e := ev.(type) {
	case KeyboardButton:
		w.Int32(int32(e.Button))
		w.Byte(byte(e.Mod))
	case KeyboardCharacter:
		w.Byte(e.Char)
		w.Byte(byte(e.Mod))
	case KeyboardUnicode:
		w.Byte(e.Char.Len)
		w.buf = append(w.buf, e.Char.Bytes[:]...)
		w.Byte(byte(e.Mod))
	case Update, Draw, LosesFocus, GainsFocus, CloseControlManager:
	case MouseWheel:
		w.Int32(e.X)
		w.Int32(e.Y)
		w.Float64(e.HDist)
		w.Float64(e.Dist)
		w.Byte(byte(e.Mod))
	case MouseDown:
		w.Int32(e.X)
		w.Int32(e.Y)
		w.Int32(int32(e.Button))
		w.Byte(byte(e.Mod))
		w.Int32(e.Clicks)
	case MouseUp:
		w.Int32(e.X)
		w.Int32(e.Y)
		w.Int32(int32(e.Button))
		w.Byte(byte(e.Mod))
	case MouseMove:
		w.Int32(e.X)
		w.Int32(e.Y)
		w.Byte(e.Buttons)
	case AcceptsDragDrop:
		w.Int32(int32(e.Type))
	case ClearDragDrop:
		w.Int32(int32(e.Type))
	case PerformDragDrop:
		w.Int32(int32(e.Type))
		w.Int32(e.X)
		w.Int32(e.Y)
	case SetSize:
		w.Float64(e.Width)
		w.Float64(e.Height)
	case RefreshWindow:
		w.Bool(e.RedrawNow)
	case RefreshWindowRectangle:
		w.Int32(e.Rect.X)
		w.Int32(e.Rect.Y)
		w.Int32(e.Rect.W)
		w.Int32(e.Rect.H)
		w.Bool(e.RedrawNow)
	case DropFile:
		w.String(e.Filename)
	case GetClipboardText:
		w.String(e.Text)
	case GetTime:
		w.Int64(e.Time)
	case GetReadFile:
		w.String(e.Filename)
		w.Int32(e.Code)
		w.Blob(e.Content)
	case GetDirectoryFiles:
		w.String(e.Dir)
		w.Int64(int64(len(e.Dirs)))
		for _, d := range e.Dirs {
			w.String(d)
		}
		w.Int64(int64(len(e.Files)))
		for _, f := range e.Files {
			w.String(f)
		}
		w.Int32(e.Code)
	default:
		w.buf = w.buf[:start]
		return scribeerrors.Newf(scribeerrors.ErrCodeInvalidInput, "unsupported event type %T", ev)
	}
	return nil
}

// Encode returns the encoding of a single event.
func Encode(ev Event) ([]byte, error) {
	var w Writer
	if err := w.Encode(ev); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Size returns the encoded size of ev in bytes, or -1 if it cannot be encoded.
func Size(ev Event) int {
	b, err := Encode(ev)
	if err != nil {
		return -1
	}
	return len(b)
}
