// Package editor implements a small text editor as a control.Controller.
// Every outside read goes through the env.Environment it is built with, so
// a session recorded against the OS replays identically.
package editor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/odvcencio/scribe/pkg/control"
	"github.com/odvcencio/scribe/pkg/env"
	"github.com/odvcencio/scribe/pkg/logging"
	"github.com/odvcencio/scribe/pkg/ui/backend"
)

// BlinkInterval is the cursor blink half-period.
const BlinkInterval = 500 * time.Millisecond

// SaveFunc persists a document. Saves are outputs, not queries, so they are
// never recorded; replays pass a function that does nothing.
type SaveFunc func(path string, data []byte) error

// Options configures an Editor.
type Options struct {
	Target   backend.RenderTarget
	TabWidth int
	Save     SaveFunc
	Logger   *logging.Logger
}

type mode int

const (
	modeText mode = iota
	modeBrowse
)

// Editor is a single-document editor. It is not safe for concurrent use;
// the windowing layer calls it from one goroutine.
type Editor struct {
	env    env.Environment
	target backend.RenderTarget
	save   SaveFunc
	logger *logging.Logger
	tab    int

	buf   *buffer
	path  string
	dirty bool

	width, height int
	top, left     int

	mode   mode
	browse browser

	status   string
	focused  bool
	blinkOn  bool
	closing  bool
	dragging bool
	staged   []string
}

var _ control.Controller = (*Editor)(nil)

// New creates an empty editor reading from environ.
func New(environ env.Environment, opts Options) *Editor {
	e := &Editor{
		env:     environ,
		target:  opts.Target,
		save:    opts.Save,
		logger:  opts.Logger,
		tab:     opts.TabWidth,
		buf:     newBuffer(""),
		focused: true,
		blinkOn: true,
	}
	if e.save == nil {
		e.save = func(path string, data []byte) error { return os.WriteFile(path, data, 0o644) }
	}
	if e.tab <= 0 {
		e.tab = 4
	}
	if opts.Target != nil {
		e.width, e.height = opts.Target.Size()
	}
	return e
}

// State is a point-in-time copy of what the editor shows.
type State struct {
	Text    string
	Row     int
	Col     int
	Path    string
	Dirty   bool
	Status  string
	Focused bool
	Browse  string
}

// Snapshot returns the current state.
func (e *Editor) Snapshot() State {
	s := State{
		Text:    e.buf.text(),
		Row:     e.buf.row,
		Col:     e.buf.col,
		Path:    e.path,
		Dirty:   e.dirty,
		Status:  e.status,
		Focused: e.focused,
	}
	if e.mode == modeBrowse {
		s.Browse = e.browse.dir
	}
	return s
}

func (e *Editor) KeyboardButton(button control.Key, mod control.Modifier) {
	e.closing = false
	if e.mode == modeBrowse {
		e.browseKey(button)
		return
	}
	b := e.buf
	switch button {
	case control.KeyLeft:
		b.left()
	case control.KeyRight:
		b.right()
	case control.KeyUp:
		b.moveTo(b.row-1, b.col)
	case control.KeyDown:
		b.moveTo(b.row+1, b.col)
	case control.KeyHome:
		b.col = 0
	case control.KeyEnd:
		b.col = len(b.line())
	case control.KeyPageUp:
		b.moveTo(b.row-e.pageSize(), b.col)
	case control.KeyPageDown:
		b.moveTo(b.row+e.pageSize(), b.col)
	case control.KeyEnter:
		b.newline()
		e.dirty = true
	case control.KeyBackspace:
		if b.backspace() {
			e.dirty = true
		}
	case control.KeyDelete:
		if b.del() {
			e.dirty = true
		}
	case control.KeyTab:
		e.insertTab()
	}
	e.scrollToCursor()
}

func (e *Editor) KeyboardCharacter(ch byte, mod control.Modifier) {
	if mod.Has(control.ModCtrl) {
		e.command(ch)
		return
	}
	e.closing = false
	if e.mode == modeBrowse {
		return
	}
	switch {
	case ch == '\n' || ch == '\r':
		e.buf.newline()
	case ch == '\t':
		e.insertTab()
	case ch < 0x20 || ch == 0x7f:
		return
	default:
		e.buf.insert(rune(ch))
	}
	e.dirty = true
	e.scrollToCursor()
}

func (e *Editor) KeyboardUnicode(ch control.Unicode, mod control.Modifier) {
	e.closing = false
	if e.mode == modeBrowse || mod.Has(control.ModCtrl) {
		return
	}
	e.buf.insert(ch.Rune())
	e.dirty = true
	e.scrollToCursor()
}

// command runs a Ctrl+letter shortcut.
func (e *Editor) command(ch byte) {
	if ch != 'q' {
		e.closing = false
	}
	switch ch {
	case 'v':
		e.pasteClipboard()
	case 'c':
		e.copyLine()
	case 's':
		e.saveFile()
	case 'o':
		e.OpenDirectory(e.browseStart())
	}
}

func (e *Editor) insertTab() {
	for i := 0; i < e.tab; i++ {
		e.buf.insert(' ')
	}
	e.dirty = true
}

func (e *Editor) pasteClipboard() {
	if e.mode == modeBrowse {
		return
	}
	text := norm.NFC.String(e.env.ClipboardText())
	if text == "" {
		e.status = "clipboard empty"
		return
	}
	e.buf.insertText(text)
	e.dirty = true
	e.scrollToCursor()
}

func (e *Editor) copyLine() {
	cw, ok := e.env.(env.ClipboardWriter)
	if !ok {
		e.status = "clipboard unavailable"
		return
	}
	cw.SetClipboardText(string(e.buf.line()))
	e.status = "copied line"
}

func (e *Editor) saveFile() {
	if e.path == "" {
		e.status = "no file name"
		return
	}
	data := []byte(e.buf.text())
	if err := e.save(e.path, data); err != nil {
		e.status = fmt.Sprintf("save failed: %v", err)
		_ = e.logger.Warn(logging.CategoryUI, "save_failed", err.Error(), map[string]any{"path": e.path})
		return
	}
	e.dirty = false
	e.status = fmt.Sprintf("wrote %d bytes", len(data))
	_ = e.logger.Info(logging.CategoryUI, "file_saved", "", map[string]any{"path": e.path, "bytes": len(data)})
}

// Open replaces the document with the contents of name.
func (e *Editor) Open(name string) error {
	data, err := e.env.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			e.buf.setText("")
			e.path, e.dirty = name, false
			e.mode = modeText
			e.top, e.left = 0, 0
			e.status = "new file"
			return nil
		}
		e.status = fmt.Sprintf("open failed: %v", err)
		return err
	}
	e.buf.setText(norm.NFC.String(string(data)))
	e.path, e.dirty = name, false
	e.mode = modeText
	e.top, e.left = 0, 0
	e.status = fmt.Sprintf("%d lines", len(e.buf.lines))
	_ = e.logger.Info(logging.CategoryUI, "file_opened", "", map[string]any{"path": name, "bytes": len(data)})
	return nil
}

func (e *Editor) Update() {
	now := e.env.Now()
	e.blinkOn = (now.UnixNano()/int64(BlinkInterval))%2 == 0
}

func (e *Editor) MouseWheel(x, y int32, hdist, dist float64, mod control.Modifier) {
	switch {
	case dist > 0:
		e.top = max(0, e.top-3)
	case dist < 0:
		e.top = min(max(0, e.rowCount()-1), e.top+3)
	}
	switch {
	case hdist < 0:
		e.left = max(0, e.left-4)
	case hdist > 0:
		e.left += 4
	}
}

func (e *Editor) MouseDown(x, y int32, button control.MouseButton, mod control.Modifier, clicks int32) {
	e.closing = false
	if button != control.MouseLeft || int(y) >= e.textHeight() {
		return
	}
	if e.mode == modeBrowse {
		e.browse.selected = clamp(e.top+int(y), 0, len(e.browse.entries)-1)
		if clicks >= 2 {
			e.browseEnter()
		}
		return
	}
	e.pointTo(int(x), int(y))
	if clicks >= 2 {
		e.buf.col = len(e.buf.line())
	}
}

func (e *Editor) MouseUp(x, y int32, button control.MouseButton, mod control.Modifier) {}

func (e *Editor) MouseMove(x, y int32, buttons uint8) {
	if buttons&1 == 0 || e.mode != modeText || int(y) >= e.textHeight() {
		return
	}
	e.pointTo(int(x), int(y))
}

func (e *Editor) LosesFocus() { e.focused = false }

func (e *Editor) GainsFocus() { e.focused = true }

func (e *Editor) AcceptsDragDrop(t control.DragType) bool {
	ok := t == control.DragFiles || t == control.DragText
	e.dragging = ok
	return ok
}

// PerformDragDrop opens the first dropped file, or inserts the dragged text
// at the drop point. Dragged text travels through the clipboard.
func (e *Editor) PerformDragDrop(t control.DragType, x, y int32) {
	switch t {
	case control.DragFiles:
		if len(e.staged) > 0 {
			_ = e.Open(e.staged[0])
		}
	case control.DragText:
		if e.mode == modeText {
			e.pointTo(int(x), int(y))
			e.pasteClipboard()
		}
	}
}

func (e *Editor) ClearDragDrop(t control.DragType) {
	e.staged = nil
	e.dragging = false
}

// DropFile stages name for the drop in progress. Outside a drag it opens the
// file directly.
func (e *Editor) DropFile(filename string) {
	if e.dragging {
		e.staged = append(e.staged, filename)
		return
	}
	_ = e.Open(filename)
}

func (e *Editor) SetSize(width, height float64) {
	e.width, e.height = int(width), int(height)
	e.scrollToCursor()
}

// CloseControlManager refuses the first close request while there are
// unsaved changes.
func (e *Editor) CloseControlManager() bool {
	if e.dirty && !e.closing {
		e.closing = true
		e.status = "unsaved changes, Ctrl+Q again to quit"
		return false
	}
	return true
}

func (e *Editor) RefreshWindow(redrawNow bool) {
	if redrawNow {
		e.Draw()
	}
}

func (e *Editor) RefreshWindowRectangle(r control.Rect, redrawNow bool) {
	e.RefreshWindow(redrawNow)
}

func (e *Editor) browseStart() string {
	if e.mode == modeBrowse {
		return e.browse.dir
	}
	if e.path != "" {
		return filepath.Dir(e.path)
	}
	return "."
}

func (e *Editor) pageSize() int {
	return max(1, e.textHeight()-1)
}

// textHeight is the number of rows above the status line.
func (e *Editor) textHeight() int {
	return max(0, e.height-1)
}
