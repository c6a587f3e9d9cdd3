// Package terminal defines the raw input events the windowing layer delivers.
package terminal

// Event represents a terminal input event.
type Event interface {
	eventMarker()
}

// KeyEvent represents a key press. Ctrl+letter arrives as KeyRune with the
// lower-case letter and Ctrl set.
type KeyEvent struct {
	Key   Key
	Rune  rune
	Alt   bool
	Ctrl  bool
	Shift bool
}

func (KeyEvent) eventMarker() {}

// ResizeEvent indicates terminal size changed.
type ResizeEvent struct {
	Width  int
	Height int
}

func (ResizeEvent) eventMarker() {}

// MouseEvent represents a mouse input event. Held is the set of buttons down
// after the event.
type MouseEvent struct {
	X, Y   int
	Button MouseButton
	Action MouseAction
	Held   uint8
	Alt    bool
	Ctrl   bool
	Shift  bool
}

func (MouseEvent) eventMarker() {}

// PasteEvent represents bracketed paste content.
type PasteEvent struct {
	Text string
}

func (PasteEvent) eventMarker() {}

// FocusEvent reports the terminal window gaining or losing focus.
type FocusEvent struct {
	Focused bool
}

func (FocusEvent) eventMarker() {}

// MouseButton identifies which mouse button was involved.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
	MouseWheelLeft
	MouseWheelRight
)

// Held button bits.
const (
	HeldLeft uint8 = 1 << iota
	HeldMiddle
	HeldRight
)

// Bit returns the held-mask bit for a pointer button, zero for wheels.
func (b MouseButton) Bit() uint8 {
	switch b {
	case MouseLeft:
		return HeldLeft
	case MouseMiddle:
		return HeldMiddle
	case MouseRight:
		return HeldRight
	default:
		return 0
	}
}

// MouseAction identifies what happened with the mouse.
type MouseAction int

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMove
	MouseWheel
)

// Key represents special keys.
type Key int

const (
	KeyNone Key = iota
	KeyRune     // Regular character
	KeyEnter
	KeyBackspace
	KeyTab
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyDelete
	KeyInsert
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)
