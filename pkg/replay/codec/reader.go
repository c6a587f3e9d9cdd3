package codec

import (
	"encoding/binary"
	"math"

	"github.com/odvcencio/scribe/pkg/control"
	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
)

// Reader decodes records from a byte buffer with a forward-only cursor.
// Every read is bounds-checked before it touches the buffer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a reader positioned at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos is the current cursor offset.
func (r *Reader) Pos() int { return r.pos }

// Len is the total buffer size.
func (r *Reader) Len() int { return len(r.buf) }

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Done reports whether the cursor reached the end of the buffer.
func (r *Reader) Done() bool { return r.pos >= len(r.buf) }

// Clone returns an independent cursor at the same position.
func (r *Reader) Clone() *Reader { return &Reader{buf: r.buf, pos: r.pos} }

func (r *Reader) truncated(need int, field string) error {
	return scribeerrors.New(scribeerrors.ErrCodeLogTruncated, "event log truncated").
		WithContext("offset", r.pos).
		WithContext("need", need).
		WithContext("size", len(r.buf)).
		WithContext("field", field)
}

func (r *Reader) take(n int, field string) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, r.truncated(n, field)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) Byte(field string) (byte, error) {
	b, err := r.take(1, field)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Bool(field string) (bool, error) {
	b, err := r.Byte(field)
	return b != 0, err
}

func (r *Reader) Int32(field string) (int32, error) {
	b, err := r.take(4, field)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (r *Reader) Int64(field string) (int64, error) {
	b, err := r.take(8, field)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (r *Reader) Float64(field string) (float64, error) {
	b, err := r.take(8, field)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// blob reads a length prefix and checks pos+length against the buffer size
// before slicing.
func (r *Reader) blob(field string) ([]byte, error) {
	prefix, err := r.take(8, field+".length")
	if err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint64(prefix)
	if n > uint64(r.Remaining()) {
		return nil, r.truncated(int(min(n, math.MaxInt32)), field)
	}
	return r.take(int(n), field)
}

func (r *Reader) String(field string) (string, error) {
	b, err := r.blob(field)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Blob returns a copy of a length-prefixed byte string. An empty blob is a
// non-nil empty slice.
func (r *Reader) Blob(field string) ([]byte, error) {
	b, err := r.blob(field)
	if err != nil {
		return nil, err
	}
	return append([]byte{}, b...), nil
}

// strings reads an int64 count followed by that many strings. The count is
// checked against the bytes left so a corrupt count cannot force a huge
// allocation.
func (r *Reader) strings(field string) ([]string, error) {
	count, err := r.Int64(field + ".count")
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, scribeerrors.Newf(scribeerrors.ErrCodeLogCorrupt, "negative %s count %d", field, count).
			WithContext("offset", r.pos)
	}
	if count > int64(r.Remaining()/8) {
		return nil, r.truncated(int(min(count, math.MaxInt32/8))*8, field)
	}
	out := make([]string, 0, count)
	for i := int64(0); i < count; i++ {
		s, err := r.String(field)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// PeekKind returns the kind at the cursor without consuming it.
func (r *Reader) PeekKind() (Kind, error) {
	if r.Done() {
		return 0, r.truncated(1, "kind")
	}
	k := Kind(r.buf[r.pos])
	if !k.Valid() {
		return k, r.unknownKind(k)
	}
	return k, nil
}

func (r *Reader) unknownKind(k Kind) error {
	return scribeerrors.Newf(scribeerrors.ErrCodeLogCorrupt, "unknown event kind 0x%02x", byte(k)).
		WithContext("offset", r.pos)
}

func (r *Reader) kind() (Kind, error) {
	k, err := r.PeekKind()
	if err != nil {
		return k, err
	}
	r.pos++
	return k, nil
}

// Skip advances past one record without materialising it and returns its
// kind. Fixed-shape kinds move by their static size; string-bearing kinds
// read their length prefixes.
func (r *Reader) Skip() (Kind, error) {
	k, err := r.kind()
	if err != nil {
		return k, err
	}
	if n, ok := fixedPayload[k]; ok {
		_, err := r.take(n, k.String())
		return k, err
	}
	switch k {
	case KindDropFile:
		if _, err := r.take(1, "target"); err != nil {
			return k, err
		}
		_, err = r.blob("filename")
	case KindGetClipboardText:
		_, err = r.blob("text")
	case KindGetReadFile:
		if _, err = r.blob("filename"); err != nil {
			return k, err
		}
		if _, err = r.take(4, "error"); err != nil {
			return k, err
		}
		_, err = r.blob("content")
	case KindGetDirectoryFiles:
		_, err = r.decodeDirectory()
	}
	return k, err
}

// Decode reads one full record.
func (r *Reader) Decode() (Event, error) {
	k, err := r.kind()
	if err != nil {
		return nil, err
	}
	if k.IsQuery() {
		return r.decodeQuery(k)
	}

	tb, err := r.Byte("target")
	if err != nil {
		return nil, err
	}
	target := control.ID(tb)
	d := fieldDecoder{r: r}

	switch k {
	case KindKeyboardButton:
		ev := KeyboardButton{Target: target}
		ev.Button = control.Key(d.i32("button"))
		ev.Mod = control.Modifier(d.u8("modifier"))
		return d.done(ev)
	case KindKeyboardCharacter:
		ev := KeyboardCharacter{Target: target}
		ev.Char = d.u8("char")
		ev.Mod = control.Modifier(d.u8("modifier"))
		return d.done(ev)
	case KindKeyboardUnicode:
		ev := KeyboardUnicode{Target: target}
		ev.Char.Len = d.u8("length")
		if d.err == nil && (ev.Char.Len == 0 || ev.Char.Len > 4) {
			return nil, scribeerrors.Newf(scribeerrors.ErrCodeLogCorrupt, "unicode length %d out of range", ev.Char.Len).
				WithContext("offset", r.pos-1)
		}
		if b := d.take(4, "char"); b != nil {
			copy(ev.Char.Bytes[:], b)
		}
		ev.Mod = control.Modifier(d.u8("modifier"))
		return d.done(ev)
	case KindUpdate:
		return Update{Target: target}, nil
	case KindDraw:
		return Draw{Target: target}, nil
	case KindMouseWheel:
		ev := MouseWheel{Target: target}
		ev.X = d.i32("x")
		ev.Y = d.i32("y")
		ev.HDist = d.f64("hdist")
		ev.Dist = d.f64("dist")
		ev.Mod = control.Modifier(d.u8("modifier"))
		return d.done(ev)
	case KindMouseDown:
		ev := MouseDown{Target: target}
		ev.X = d.i32("x")
		ev.Y = d.i32("y")
		ev.Button = control.MouseButton(d.i32("button"))
		ev.Mod = control.Modifier(d.u8("modifier"))
		ev.Clicks = d.i32("click_count")
		return d.done(ev)
	case KindMouseUp:
		ev := MouseUp{Target: target}
		ev.X = d.i32("x")
		ev.Y = d.i32("y")
		ev.Button = control.MouseButton(d.i32("button"))
		ev.Mod = control.Modifier(d.u8("modifier"))
		return d.done(ev)
	case KindMouseMove:
		ev := MouseMove{Target: target}
		ev.X = d.i32("x")
		ev.Y = d.i32("y")
		ev.Buttons = d.u8("button")
		return d.done(ev)
	case KindLosesFocus:
		return LosesFocus{Target: target}, nil
	case KindGainsFocus:
		return GainsFocus{Target: target}, nil
	case KindAcceptsDragDrop:
		ev := AcceptsDragDrop{Target: target}
		ev.Type = control.DragType(d.i32("type"))
		return d.done(ev)
	case KindClearDragDrop:
		ev := ClearDragDrop{Target: target}
		ev.Type = control.DragType(d.i32("type"))
		return d.done(ev)
	case KindPerformDragDrop:
		ev := PerformDragDrop{Target: target}
		ev.Type = control.DragType(d.i32("type"))
		ev.X = d.i32("x")
		ev.Y = d.i32("y")
		return d.done(ev)
	case KindSetSize:
		ev := SetSize{Target: target}
		ev.Width = d.f64("width")
		ev.Height = d.f64("height")
		return d.done(ev)
	case KindCloseControlManager:
		return CloseControlManager{Target: target}, nil
	case KindRefreshWindow:
		ev := RefreshWindow{Target: target}
		ev.RedrawNow = d.u8("redraw_now") != 0
		return d.done(ev)
	case KindRefreshWindowRectangle:
		ev := RefreshWindowRectangle{Target: target}
		ev.Rect.X = d.i32("x")
		ev.Rect.Y = d.i32("y")
		ev.Rect.W = d.i32("w")
		ev.Rect.H = d.i32("h")
		ev.RedrawNow = d.u8("redraw_now") != 0
		return d.done(ev)
	case KindDropFile:
		name, err := r.String("filename")
		if err != nil {
			return nil, err
		}
		return DropFile{Target: target, Filename: name}, nil
	}
	return nil, r.unknownKind(k)
}

func (r *Reader) decodeQuery(k Kind) (Event, error) {
	switch k {
	case KindGetClipboardText:
		text, err := r.String("text")
		if err != nil {
			return nil, err
		}
		return GetClipboardText{Text: text}, nil
	case KindGetTime:
		t, err := r.Int64("time")
		if err != nil {
			return nil, err
		}
		return GetTime{Time: t}, nil
	case KindGetReadFile:
		name, err := r.String("filename")
		if err != nil {
			return nil, err
		}
		code, err := r.Int32("error")
		if err != nil {
			return nil, err
		}
		content, err := r.Blob("content")
		if err != nil {
			return nil, err
		}
		return GetReadFile{Filename: name, Code: code, Content: content}, nil
	case KindGetDirectoryFiles:
		return r.decodeDirectory()
	}
	return nil, r.unknownKind(k)
}

func (r *Reader) decodeDirectory() (GetDirectoryFiles, error) {
	var ev GetDirectoryFiles
	var err error
	if ev.Dir, err = r.String("dirname"); err != nil {
		return ev, err
	}
	if ev.Dirs, err = r.strings("dirnames"); err != nil {
		return ev, err
	}
	if ev.Files, err = r.strings("filenames"); err != nil {
		return ev, err
	}
	ev.Code, err = r.Int32("flags")
	return ev, err
}

// fieldDecoder reads a run of fixed fields and keeps the first error, so the
// per-kind decoders read straight through.
type fieldDecoder struct {
	r   *Reader
	err error
}

func (d *fieldDecoder) take(n int, field string) []byte {
	if d.err != nil {
		return nil
	}
	b, err := d.r.take(n, field)
	d.err = err
	return b
}

func (d *fieldDecoder) u8(field string) byte {
	if b := d.take(1, field); b != nil {
		return b[0]
	}
	return 0
}

func (d *fieldDecoder) i32(field string) int32 {
	if b := d.take(4, field); b != nil {
		return int32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

func (d *fieldDecoder) f64(field string) float64 {
	if b := d.take(8, field); b != nil {
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return 0
}

func (d *fieldDecoder) done(ev Event) (Event, error) {
	if d.err != nil {
		return nil, d.err
	}
	return ev, nil
}
