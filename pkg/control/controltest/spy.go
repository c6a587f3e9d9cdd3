// Package controltest provides a call-recording controller for tests.
package controltest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/odvcencio/scribe/pkg/control"
)

// Call is one recorded controller invocation.
type Call struct {
	Method string
	Args   []any
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprint(a)
	}
	return c.Method + "(" + strings.Join(args, ", ") + ")"
}

// Spy records every call in order. Hook, when set, runs after the call is
// recorded and may query the environment the way a real controller would.
type Spy struct {
	mu    sync.Mutex
	calls []Call

	AcceptDrop bool
	AllowClose bool
	Hook       func(call Call)
}

var _ control.Controller = (*Spy)(nil)

// Calls returns a copy of the recorded calls.
func (s *Spy) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Methods returns just the method names, in order.
func (s *Spy) Methods() []string {
	calls := s.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

// Reset clears the recorded calls.
func (s *Spy) Reset() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

func (s *Spy) record(method string, args ...any) {
	call := Call{Method: method, Args: args}
	s.mu.Lock()
	s.calls = append(s.calls, call)
	hook := s.Hook
	s.mu.Unlock()
	if hook != nil {
		hook(call)
	}
}

func (s *Spy) KeyboardButton(button control.Key, mod control.Modifier) {
	s.record("KeyboardButton", button, mod)
}

func (s *Spy) KeyboardCharacter(ch byte, mod control.Modifier) {
	s.record("KeyboardCharacter", ch, mod)
}

func (s *Spy) KeyboardUnicode(ch control.Unicode, mod control.Modifier) {
	s.record("KeyboardUnicode", ch, mod)
}

func (s *Spy) Update() { s.record("Update") }

func (s *Spy) Draw() { s.record("Draw") }

func (s *Spy) MouseWheel(x, y int32, hdist, dist float64, mod control.Modifier) {
	s.record("MouseWheel", x, y, hdist, dist, mod)
}

func (s *Spy) MouseDown(x, y int32, button control.MouseButton, mod control.Modifier, clicks int32) {
	s.record("MouseDown", x, y, button, mod, clicks)
}

func (s *Spy) MouseUp(x, y int32, button control.MouseButton, mod control.Modifier) {
	s.record("MouseUp", x, y, button, mod)
}

func (s *Spy) MouseMove(x, y int32, buttons uint8) {
	s.record("MouseMove", x, y, buttons)
}

func (s *Spy) LosesFocus() { s.record("LosesFocus") }

func (s *Spy) GainsFocus() { s.record("GainsFocus") }

func (s *Spy) AcceptsDragDrop(t control.DragType) bool {
	s.record("AcceptsDragDrop", t)
	return s.AcceptDrop
}

func (s *Spy) PerformDragDrop(t control.DragType, x, y int32) {
	s.record("PerformDragDrop", t, x, y)
}

func (s *Spy) ClearDragDrop(t control.DragType) {
	s.record("ClearDragDrop", t)
}

func (s *Spy) SetSize(width, height float64) {
	s.record("SetSize", width, height)
}

func (s *Spy) CloseControlManager() bool {
	s.record("CloseControlManager")
	return s.AllowClose
}

func (s *Spy) RefreshWindow(redrawNow bool) {
	s.record("RefreshWindow", redrawNow)
}

func (s *Spy) RefreshWindowRectangle(r control.Rect, redrawNow bool) {
	s.record("RefreshWindowRectangle", r, redrawNow)
}

func (s *Spy) DropFile(filename string) {
	s.record("DropFile", filename)
}
