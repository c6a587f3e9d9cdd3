// Package tcell provides a Backend implementation using tcell.
package tcell

import (
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/odvcencio/scribe/pkg/ui/backend"
	"github.com/odvcencio/scribe/pkg/ui/terminal"
)

const pointerButtons = tcell.ButtonPrimary | tcell.ButtonSecondary | tcell.ButtonMiddle

// Backend implements backend.Backend using tcell.
type Backend struct {
	screen tcell.Screen

	mu sync.Mutex
	// Bracketed paste state
	inPaste     bool
	pasteBuffer strings.Builder
	// Pointer buttons held after the last mouse event, used to tell presses
	// from drags since tcell reports button state rather than transitions.
	held tcell.ButtonMask
}

// New creates a backend over the process terminal.
func New() (*Backend, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Backend{screen: screen}, nil
}

// NewWithScreen creates a backend with an existing tcell screen.
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{screen: screen}
}

func (b *Backend) Init() error {
	if err := b.screen.Init(); err != nil {
		return err
	}
	b.screen.EnableMouse()
	b.screen.EnablePaste()
	b.screen.EnableFocus()
	return nil
}

func (b *Backend) Fini() { b.screen.Fini() }

func (b *Backend) Size() (width, height int) { return b.screen.Size() }

func (b *Backend) SetContent(x, y int, mainc rune, comb []rune, style backend.Style) {
	b.screen.SetContent(x, y, mainc, comb, convertStyle(style))
}

func (b *Backend) Show()                 { b.screen.Show() }
func (b *Backend) Clear()                { b.screen.Clear() }
func (b *Backend) HideCursor()           { b.screen.HideCursor() }
func (b *Backend) SetCursorPos(x, y int) { b.screen.ShowCursor(x, y) }
func (b *Backend) Sync()                 { b.screen.Sync() }

// PollEvent blocks until an event is available. Keys typed between paste
// start and end are folded into a single PasteEvent.
func (b *Backend) PollEvent() terminal.Event {
	for {
		ev := b.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if out, ok := b.handle(ev); ok {
			return out
		}
	}
}

func (b *Backend) handle(ev tcell.Event) (terminal.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch e := ev.(type) {
	case *tcell.EventPaste:
		if e.Start() {
			b.inPaste = true
			b.pasteBuffer.Reset()
			return nil, false
		}
		b.inPaste = false
		text := b.pasteBuffer.String()
		b.pasteBuffer.Reset()
		if text == "" {
			return nil, false
		}
		return terminal.PasteEvent{Text: text}, true

	case *tcell.EventKey:
		if b.inPaste {
			switch e.Key() {
			case tcell.KeyRune:
				b.pasteBuffer.WriteRune(e.Rune())
			case tcell.KeyEnter:
				b.pasteBuffer.WriteRune('\n')
			case tcell.KeyTab:
				b.pasteBuffer.WriteRune('\t')
			}
			return nil, false
		}
		return convertKey(e), true

	case *tcell.EventMouse:
		return b.convertMouse(e), true

	case *tcell.EventResize:
		w, h := e.Size()
		return terminal.ResizeEvent{Width: w, Height: h}, true

	case *tcell.EventFocus:
		return terminal.FocusEvent{Focused: e.Focused}, true
	}
	return nil, false
}

// PostEvent converts ev back to a tcell event and queues it.
func (b *Backend) PostEvent(ev terminal.Event) error {
	for _, tev := range reverseConvertEvent(ev) {
		if err := b.screen.PostEvent(tev); err != nil {
			return err
		}
	}
	return nil
}

func convertStyle(s backend.Style) tcell.Style {
	fg, bg, attrs := s.Decompose()
	return tcell.StyleDefault.
		Foreground(convertColor(fg)).
		Background(convertColor(bg)).
		Bold(attrs&backend.AttrBold != 0).
		Reverse(attrs&backend.AttrReverse != 0).
		Underline(attrs&backend.AttrUnderline != 0).
		Dim(attrs&backend.AttrDim != 0)
}

func convertColor(c backend.Color) tcell.Color {
	if c == backend.ColorDefault {
		return tcell.ColorDefault
	}
	if c.IsRGB() {
		r, g, b := c.RGB()
		return tcell.NewRGBColor(int32(r), int32(g), int32(b))
	}
	return tcell.PaletteColor(int(c))
}

var keyMap = map[tcell.Key]terminal.Key{
	tcell.KeyUp:        terminal.KeyUp,
	tcell.KeyDown:      terminal.KeyDown,
	tcell.KeyRight:     terminal.KeyRight,
	tcell.KeyLeft:      terminal.KeyLeft,
	tcell.KeyPgUp:      terminal.KeyPageUp,
	tcell.KeyPgDn:      terminal.KeyPageDown,
	tcell.KeyHome:      terminal.KeyHome,
	tcell.KeyEnd:       terminal.KeyEnd,
	tcell.KeyInsert:    terminal.KeyInsert,
	tcell.KeyDelete:    terminal.KeyDelete,
	tcell.KeyBackspace: terminal.KeyBackspace,
	tcell.KeyTab:       terminal.KeyTab,
	tcell.KeyEnter:     terminal.KeyEnter,
	tcell.KeyEscape:    terminal.KeyEscape,
	tcell.KeyF1:        terminal.KeyF1,
	tcell.KeyF2:        terminal.KeyF2,
	tcell.KeyF3:        terminal.KeyF3,
	tcell.KeyF4:        terminal.KeyF4,
	tcell.KeyF5:        terminal.KeyF5,
	tcell.KeyF6:        terminal.KeyF6,
	tcell.KeyF7:        terminal.KeyF7,
	tcell.KeyF8:        terminal.KeyF8,
	tcell.KeyF9:        terminal.KeyF9,
	tcell.KeyF10:       terminal.KeyF10,
	tcell.KeyF11:       terminal.KeyF11,
	tcell.KeyF12:       terminal.KeyF12,
}

func convertKey(e *tcell.EventKey) terminal.KeyEvent {
	mods := e.Modifiers()
	out := terminal.KeyEvent{
		Alt:   mods&tcell.ModAlt != 0,
		Ctrl:  mods&tcell.ModCtrl != 0,
		Shift: mods&tcell.ModShift != 0,
	}
	k := e.Key()
	switch {
	case k == tcell.KeyRune:
		out.Key, out.Rune = terminal.KeyRune, e.Rune()
	case keyMap[k] != terminal.KeyNone:
		out.Key = keyMap[k]
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		out.Key, out.Rune, out.Ctrl = terminal.KeyRune, 'a'+rune(k-tcell.KeyCtrlA), true
	default:
		out.Key = terminal.KeyNone
	}
	return out
}

func (b *Backend) convertMouse(e *tcell.EventMouse) terminal.MouseEvent {
	x, y := e.Position()
	mods := e.Modifiers()
	btns := e.Buttons()
	out := terminal.MouseEvent{
		X:     x,
		Y:     y,
		Alt:   mods&tcell.ModAlt != 0,
		Ctrl:  mods&tcell.ModCtrl != 0,
		Shift: mods&tcell.ModShift != 0,
	}

	switch {
	case btns&tcell.WheelUp != 0:
		out.Button, out.Action = terminal.MouseWheelUp, terminal.MouseWheel
	case btns&tcell.WheelDown != 0:
		out.Button, out.Action = terminal.MouseWheelDown, terminal.MouseWheel
	case btns&tcell.WheelLeft != 0:
		out.Button, out.Action = terminal.MouseWheelLeft, terminal.MouseWheel
	case btns&tcell.WheelRight != 0:
		out.Button, out.Action = terminal.MouseWheelRight, terminal.MouseWheel
	}
	if out.Action == terminal.MouseWheel {
		out.Held = heldMask(b.held)
		return out
	}

	now := btns & pointerButtons
	pressed := now &^ b.held
	released := b.held &^ now
	switch {
	case pressed != 0:
		out.Button, out.Action = buttonOf(pressed), terminal.MousePress
	case released != 0:
		out.Button, out.Action = buttonOf(released), terminal.MouseRelease
	default:
		out.Button, out.Action = buttonOf(now), terminal.MouseMove
	}
	b.held = now
	out.Held = heldMask(now)
	return out
}

func buttonOf(mask tcell.ButtonMask) terminal.MouseButton {
	switch {
	case mask&tcell.ButtonPrimary != 0:
		return terminal.MouseLeft
	case mask&tcell.ButtonMiddle != 0:
		return terminal.MouseMiddle
	case mask&tcell.ButtonSecondary != 0:
		return terminal.MouseRight
	default:
		return terminal.MouseNone
	}
}

func heldMask(mask tcell.ButtonMask) uint8 {
	var out uint8
	if mask&tcell.ButtonPrimary != 0 {
		out |= terminal.HeldLeft
	}
	if mask&tcell.ButtonMiddle != 0 {
		out |= terminal.HeldMiddle
	}
	if mask&tcell.ButtonSecondary != 0 {
		out |= terminal.HeldRight
	}
	return out
}

func maskOf(held uint8) tcell.ButtonMask {
	var out tcell.ButtonMask
	if held&terminal.HeldLeft != 0 {
		out |= tcell.ButtonPrimary
	}
	if held&terminal.HeldMiddle != 0 {
		out |= tcell.ButtonMiddle
	}
	if held&terminal.HeldRight != 0 {
		out |= tcell.ButtonSecondary
	}
	return out
}

func modMask(alt, ctrl, shift bool) tcell.ModMask {
	var m tcell.ModMask
	if alt {
		m |= tcell.ModAlt
	}
	if ctrl {
		m |= tcell.ModCtrl
	}
	if shift {
		m |= tcell.ModShift
	}
	return m
}

// reverseConvertEvent turns a terminal event into the tcell events that
// would have produced it.
func reverseConvertEvent(ev terminal.Event) []tcell.Event {
	switch e := ev.(type) {
	case terminal.ResizeEvent:
		return []tcell.Event{tcell.NewEventResize(e.Width, e.Height)}
	case terminal.FocusEvent:
		return []tcell.Event{tcell.NewEventFocus(e.Focused)}
	case terminal.KeyEvent:
		mod := modMask(e.Alt, e.Ctrl, e.Shift)
		if e.Key == terminal.KeyRune {
			return []tcell.Event{tcell.NewEventKey(tcell.KeyRune, e.Rune, mod)}
		}
		for tk, k := range keyMap {
			if k == e.Key {
				return []tcell.Event{tcell.NewEventKey(tk, 0, mod)}
			}
		}
		return nil
	case terminal.MouseEvent:
		mod := modMask(e.Alt, e.Ctrl, e.Shift)
		var btns tcell.ButtonMask
		switch e.Button {
		case terminal.MouseWheelUp:
			btns = tcell.WheelUp
		case terminal.MouseWheelDown:
			btns = tcell.WheelDown
		case terminal.MouseWheelLeft:
			btns = tcell.WheelLeft
		case terminal.MouseWheelRight:
			btns = tcell.WheelRight
		default:
			btns = maskOf(e.Held)
		}
		return []tcell.Event{tcell.NewEventMouse(e.X, e.Y, btns, mod)}
	case terminal.PasteEvent:
		out := []tcell.Event{tcell.NewEventPaste(true)}
		for _, r := range e.Text {
			switch r {
			case '\n':
				out = append(out, tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
			case '\t':
				out = append(out, tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone))
			default:
				out = append(out, tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
			}
		}
		return append(out, tcell.NewEventPaste(false))
	default:
		return nil
	}
}

var _ backend.Backend = (*Backend)(nil)
