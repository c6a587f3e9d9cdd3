// Package record captures controller input and environment answers into an
// event log while passing every call through to the live implementation.
package record

import (
	"github.com/odvcencio/scribe/pkg/control"
	"github.com/odvcencio/scribe/pkg/replay/codec"
)

// Sink receives events in the order they happen. Append must make the event
// durable before returning and must serialize concurrent callers.
type Sink interface {
	Append(ev codec.Event) error
}

// FatalHandler is called when an event cannot be persisted. Recording cannot
// continue past a lost event, so handlers normally stop the process.
type FatalHandler func(err error)

// PanicOnFatal is the default FatalHandler.
func PanicOnFatal(err error) { panic(err) }

// Interceptor decorates a controller: each call is appended to the sink and
// then forwarded unchanged. If the append fails the call is not forwarded.
type Interceptor struct {
	id      control.ID
	inner   control.Controller
	sink    Sink
	onFatal FatalHandler
}

var _ control.Controller = (*Interceptor)(nil)

// NewInterceptor wraps inner, which must already be registered under id.
// A nil onFatal selects PanicOnFatal.
func NewInterceptor(id control.ID, inner control.Controller, sink Sink, onFatal FatalHandler) *Interceptor {
	if onFatal == nil {
		onFatal = PanicOnFatal
	}
	return &Interceptor{id: id, inner: inner, sink: sink, onFatal: onFatal}
}

// ID is the registry id stamped on every event.
func (i *Interceptor) ID() control.ID { return i.id }

// Inner returns the wrapped controller.
func (i *Interceptor) Inner() control.Controller { return i.inner }

func (i *Interceptor) emit(ev codec.Event) bool {
	if err := i.sink.Append(ev); err != nil {
		i.onFatal(err)
		return false
	}
	return true
}

func (i *Interceptor) KeyboardButton(button control.Key, mod control.Modifier) {
	if i.emit(codec.KeyboardButton{Target: i.id, Button: button, Mod: mod}) {
		i.inner.KeyboardButton(button, mod)
	}
}

func (i *Interceptor) KeyboardCharacter(ch byte, mod control.Modifier) {
	if i.emit(codec.KeyboardCharacter{Target: i.id, Char: ch, Mod: mod}) {
		i.inner.KeyboardCharacter(ch, mod)
	}
}

func (i *Interceptor) KeyboardUnicode(ch control.Unicode, mod control.Modifier) {
	if i.emit(codec.KeyboardUnicode{Target: i.id, Char: ch, Mod: mod}) {
		i.inner.KeyboardUnicode(ch, mod)
	}
}

func (i *Interceptor) Update() {
	if i.emit(codec.Update{Target: i.id}) {
		i.inner.Update()
	}
}

func (i *Interceptor) Draw() {
	if i.emit(codec.Draw{Target: i.id}) {
		i.inner.Draw()
	}
}

func (i *Interceptor) MouseWheel(x, y int32, hdist, dist float64, mod control.Modifier) {
	if i.emit(codec.MouseWheel{Target: i.id, X: x, Y: y, HDist: hdist, Dist: dist, Mod: mod}) {
		i.inner.MouseWheel(x, y, hdist, dist, mod)
	}
}

func (i *Interceptor) MouseDown(x, y int32, button control.MouseButton, mod control.Modifier, clicks int32) {
	if i.emit(codec.MouseDown{Target: i.id, X: x, Y: y, Button: button, Mod: mod, Clicks: clicks}) {
		i.inner.MouseDown(x, y, button, mod, clicks)
	}
}

func (i *Interceptor) MouseUp(x, y int32, button control.MouseButton, mod control.Modifier) {
	if i.emit(codec.MouseUp{Target: i.id, X: x, Y: y, Button: button, Mod: mod}) {
		i.inner.MouseUp(x, y, button, mod)
	}
}

func (i *Interceptor) MouseMove(x, y int32, buttons uint8) {
	if i.emit(codec.MouseMove{Target: i.id, X: x, Y: y, Buttons: buttons}) {
		i.inner.MouseMove(x, y, buttons)
	}
}

func (i *Interceptor) LosesFocus() {
	if i.emit(codec.LosesFocus{Target: i.id}) {
		i.inner.LosesFocus()
	}
}

func (i *Interceptor) GainsFocus() {
	if i.emit(codec.GainsFocus{Target: i.id}) {
		i.inner.GainsFocus()
	}
}

func (i *Interceptor) AcceptsDragDrop(t control.DragType) bool {
	if !i.emit(codec.AcceptsDragDrop{Target: i.id, Type: t}) {
		return false
	}
	return i.inner.AcceptsDragDrop(t)
}

func (i *Interceptor) PerformDragDrop(t control.DragType, x, y int32) {
	if i.emit(codec.PerformDragDrop{Target: i.id, Type: t, X: x, Y: y}) {
		i.inner.PerformDragDrop(t, x, y)
	}
}

func (i *Interceptor) ClearDragDrop(t control.DragType) {
	if i.emit(codec.ClearDragDrop{Target: i.id, Type: t}) {
		i.inner.ClearDragDrop(t)
	}
}

func (i *Interceptor) SetSize(width, height float64) {
	if i.emit(codec.SetSize{Target: i.id, Width: width, Height: height}) {
		i.inner.SetSize(width, height)
	}
}

func (i *Interceptor) CloseControlManager() bool {
	if !i.emit(codec.CloseControlManager{Target: i.id}) {
		return false
	}
	return i.inner.CloseControlManager()
}

func (i *Interceptor) RefreshWindow(redrawNow bool) {
	if i.emit(codec.RefreshWindow{Target: i.id, RedrawNow: redrawNow}) {
		i.inner.RefreshWindow(redrawNow)
	}
}

func (i *Interceptor) RefreshWindowRectangle(r control.Rect, redrawNow bool) {
	if i.emit(codec.RefreshWindowRectangle{Target: i.id, Rect: r, RedrawNow: redrawNow}) {
		i.inner.RefreshWindowRectangle(r, redrawNow)
	}
}

func (i *Interceptor) DropFile(filename string) {
	if i.emit(codec.DropFile{Target: i.id, Filename: filename}) {
		i.inner.DropFile(filename)
	}
}
