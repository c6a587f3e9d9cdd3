// Package sim provides a headless backend for tests and replays. Rendering
// goes through tcell's simulation screen; input comes from an in-memory queue
// so scripted sessions are never dropped or reordered.
package sim

import (
	"strings"
	"sync"

	tcellv2 "github.com/gdamore/tcell/v2"

	"github.com/odvcencio/scribe/pkg/ui/backend"
	"github.com/odvcencio/scribe/pkg/ui/backend/tcell"
	"github.com/odvcencio/scribe/pkg/ui/terminal"
)

// Backend is a testable backend using tcell's simulation screen.
type Backend struct {
	*tcell.Backend
	screen tcellv2.SimulationScreen

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []terminal.Event
	closed bool
}

// New creates a simulation backend with the given dimensions.
func New(width, height int) *Backend {
	screen := tcellv2.NewSimulationScreen("")
	screen.SetSize(width, height)

	b := &Backend{
		Backend: tcell.NewWithScreen(screen),
		screen:  screen,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Init initializes the screen and applies the requested size.
func (s *Backend) Init() error {
	w, h := s.screen.Size()
	if err := s.Backend.Init(); err != nil {
		return err
	}
	s.screen.SetSize(w, h)
	return nil
}

// Fini releases the screen and wakes any blocked PollEvent.
func (s *Backend) Fini() {
	s.CloseInput()
	s.Backend.Fini()
}

// PostEvent queues ev. It never drops events.
func (s *Backend) PostEvent(ev terminal.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, ev)
	s.cond.Broadcast()
	return nil
}

// CloseInput marks the end of scripted input. PollEvent returns nil once the
// queue is empty.
func (s *Backend) CloseInput() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
}

// PollEvent returns the next queued event, blocking until one is posted or
// input is closed.
func (s *Backend) PollEvent() terminal.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.queue) == 0 {
		return nil
	}
	ev := s.queue[0]
	s.queue = s.queue[1:]
	return ev
}

// Pending reports how many events are queued.
func (s *Backend) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Resize changes the simulation screen size without posting an event.
func (s *Backend) Resize(width, height int) {
	s.screen.SetSize(width, height)
}

// InjectKey injects a special key.
func (s *Backend) InjectKey(key terminal.Key) {
	_ = s.PostEvent(terminal.KeyEvent{Key: key})
}

// InjectKeyRune injects a regular character keypress.
func (s *Backend) InjectKeyRune(r rune) {
	_ = s.PostEvent(terminal.KeyEvent{Key: terminal.KeyRune, Rune: r})
}

// InjectCtrl injects Ctrl plus a lower-case letter.
func (s *Backend) InjectCtrl(r rune) {
	_ = s.PostEvent(terminal.KeyEvent{Key: terminal.KeyRune, Rune: r, Ctrl: true})
}

// InjectKeyString injects a string as a sequence of key events.
func (s *Backend) InjectKeyString(str string) {
	for _, r := range str {
		s.InjectKeyRune(r)
	}
}

// InjectResize resizes the screen and posts the matching event.
func (s *Backend) InjectResize(width, height int) {
	s.screen.SetSize(width, height)
	_ = s.PostEvent(terminal.ResizeEvent{Width: width, Height: height})
}

// InjectClick posts a press and release of the left button at (x, y).
func (s *Backend) InjectClick(x, y int) {
	_ = s.PostEvent(terminal.MouseEvent{X: x, Y: y, Button: terminal.MouseLeft, Action: terminal.MousePress, Held: terminal.HeldLeft})
	_ = s.PostEvent(terminal.MouseEvent{X: x, Y: y, Button: terminal.MouseLeft, Action: terminal.MouseRelease})
}

// InjectWheel posts a wheel step.
func (s *Backend) InjectWheel(x, y int, button terminal.MouseButton) {
	_ = s.PostEvent(terminal.MouseEvent{X: x, Y: y, Button: button, Action: terminal.MouseWheel})
}

// InjectPaste posts bracketed paste content.
func (s *Backend) InjectPaste(text string) {
	_ = s.PostEvent(terminal.PasteEvent{Text: text})
}

// InjectFocus posts a focus change.
func (s *Backend) InjectFocus(focused bool) {
	_ = s.PostEvent(terminal.FocusEvent{Focused: focused})
}

// Capture returns the current screen content, one line per row.
func (s *Backend) Capture() string {
	w, h := s.screen.Size()
	return s.CaptureRegion(0, 0, w, h)
}

// CaptureRegion captures a rectangular region of the screen.
func (s *Backend) CaptureRegion(x, y, w, h int) string {
	lines := make([]string, 0, h)
	for row := y; row < y+h; row++ {
		var line strings.Builder
		for col := x; col < x+w; col++ {
			mainc, comb, _, _ := s.screen.GetContent(col, row)
			if mainc == 0 {
				mainc = ' '
			}
			line.WriteRune(mainc)
			for _, c := range comb {
				line.WriteRune(c)
			}
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// CaptureCell returns the content and style of a single cell.
func (s *Backend) CaptureCell(x, y int) (mainc rune, comb []rune, style backend.Style) {
	m, c, tcStyle, _ := s.screen.GetContent(x, y)
	return m, c, convertTcellStyle(tcStyle)
}

// Line returns row y with trailing spaces removed.
func (s *Backend) Line(y int) string {
	lines := strings.Split(s.Capture(), "\n")
	if y < 0 || y >= len(lines) {
		return ""
	}
	return strings.TrimRight(lines[y], " ")
}

// FindText searches for text on the screen and returns its position.
func (s *Backend) FindText(text string) (x, y int) {
	for row, line := range strings.Split(s.Capture(), "\n") {
		if col := strings.Index(line, text); col >= 0 {
			return len([]rune(line[:col])), row
		}
	}
	return -1, -1
}

// ContainsText returns true if the text appears anywhere on screen.
func (s *Backend) ContainsText(text string) bool {
	x, _ := s.FindText(text)
	return x >= 0
}

func convertTcellStyle(ts tcellv2.Style) backend.Style {
	fg, bg, attrs := ts.Decompose()
	return backend.DefaultStyle().
		Foreground(convertTcellColor(fg)).
		Background(convertTcellColor(bg)).
		Bold(attrs&tcellv2.AttrBold != 0).
		Reverse(attrs&tcellv2.AttrReverse != 0).
		Underline(attrs&tcellv2.AttrUnderline != 0).
		Dim(attrs&tcellv2.AttrDim != 0)
}

func convertTcellColor(tc tcellv2.Color) backend.Color {
	if tc == tcellv2.ColorDefault {
		return backend.ColorDefault
	}
	if tc&tcellv2.ColorIsRGB != 0 {
		r, g, b := tc.RGB()
		return backend.ColorRGB(uint8(r), uint8(g), uint8(b))
	}
	return backend.Color(tc & 0xFF)
}

var _ backend.Backend = (*Backend)(nil)
