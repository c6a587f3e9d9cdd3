// Package pump drives a control.Controller from a terminal backend. It is
// the only place where raw terminal events become controller calls, so a
// recording interceptor placed in front of the controller sees every input
// the editor receives.
package pump

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/odvcencio/scribe/pkg/control"
	"github.com/odvcencio/scribe/pkg/logging"
	"github.com/odvcencio/scribe/pkg/ui/backend"
	"github.com/odvcencio/scribe/pkg/ui/terminal"
)

// DefaultDoubleClick is the click-counting window used when Config leaves it
// unset.
const DefaultDoubleClick = 400 * time.Millisecond

// Config configures a Pump.
type Config struct {
	Backend    backend.Backend
	Controller control.Controller

	// DoubleClick is the longest gap between presses that still counts as
	// a multi-click.
	DoubleClick time.Duration
	// TickRate drives periodic Update/Draw calls. Zero disables ticking.
	TickRate time.Duration
	// Clock timestamps presses for click counting. Defaults to time.Now.
	Clock         func() time.Time
	Logger        *logging.Logger
	MessageBuffer int
}

// Pump converts terminal events into controller calls.
type Pump struct {
	backend     backend.Backend
	ctrl        control.Controller
	doubleClick time.Duration
	tickRate    time.Duration
	clock       func() time.Time
	logger      *logging.Logger
	bufferSize  int

	lastX, lastY int32
	lastPress    time.Time
	lastButton   control.MouseButton
	clicks       int32
}

// New creates a pump from config.
func New(cfg Config) *Pump {
	p := &Pump{
		backend:     cfg.Backend,
		ctrl:        cfg.Controller,
		doubleClick: cfg.DoubleClick,
		tickRate:    cfg.TickRate,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
		bufferSize:  cfg.MessageBuffer,
	}
	if p.doubleClick <= 0 {
		p.doubleClick = DefaultDoubleClick
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.bufferSize <= 0 {
		p.bufferSize = 128
	}
	return p
}

// Run pumps events until the controller accepts a close, the backend stops
// delivering events or ctx is cancelled. The backend must already be
// initialized; Run does not call Init or Fini.
func (p *Pump) Run(ctx context.Context) error {
	if p.backend == nil || p.ctrl == nil {
		return errors.New("pump: backend and controller are required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	w, h := p.backend.Size()
	p.ctrl.SetSize(float64(w), float64(h))
	p.render()

	events := make(chan terminal.Event, p.bufferSize)
	done := make(chan struct{})
	defer close(done)
	go p.pollEvents(events, done)

	var ticks <-chan time.Time
	if p.tickRate > 0 {
		ticker := time.NewTicker(p.tickRate)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if p.Handle(ev) {
				_ = p.logger.Info(logging.CategoryUI, "close_accepted", "controller accepted close", nil)
				return nil
			}
		case <-ticks:
			p.render()
		}
	}
}

func (p *Pump) pollEvents(out chan<- terminal.Event, done <-chan struct{}) {
	defer close(out)
	for {
		ev := p.backend.PollEvent()
		if ev == nil {
			return
		}
		select {
		case out <- ev:
		case <-done:
			return
		}
	}
}

// Handle delivers one terminal event to the controller, then updates and
// redraws. It reports whether the controller accepted a close request.
func (p *Pump) Handle(ev terminal.Event) (closed bool) {
	switch e := ev.(type) {
	case terminal.KeyEvent:
		if e.Key == terminal.KeyRune && e.Ctrl && e.Rune == 'q' {
			if p.ctrl.CloseControlManager() {
				return true
			}
			break
		}
		p.key(e)
	case terminal.MouseEvent:
		p.mouse(e)
	case terminal.ResizeEvent:
		p.ctrl.SetSize(float64(e.Width), float64(e.Height))
		p.backend.Sync()
	case terminal.FocusEvent:
		if e.Focused {
			p.ctrl.GainsFocus()
		} else {
			p.ctrl.LosesFocus()
		}
	case terminal.PasteEvent:
		p.paste(e.Text)
	default:
		return false
	}
	p.render()
	return false
}

func (p *Pump) render() {
	p.ctrl.Update()
	p.ctrl.Draw()
	p.backend.Show()
}

func (p *Pump) key(e terminal.KeyEvent) {
	mod := modifiers(e.Alt, e.Ctrl, e.Shift)
	if e.Key == terminal.KeyRune {
		p.character(e.Rune, mod)
		return
	}
	if k, ok := keys[e.Key]; ok {
		p.ctrl.KeyboardButton(k, mod)
	}
}

func (p *Pump) character(r rune, mod control.Modifier) {
	if r >= 0 && r < 0x80 {
		p.ctrl.KeyboardCharacter(byte(r), mod)
		return
	}
	p.ctrl.KeyboardUnicode(control.NewUnicode(r), mod)
}

func (p *Pump) mouse(e terminal.MouseEvent) {
	x, y := int32(e.X), int32(e.Y)
	mod := modifiers(e.Alt, e.Ctrl, e.Shift)

	switch e.Action {
	case terminal.MousePress:
		btn := buttons[e.Button]
		now := p.clock()
		if btn == p.lastButton && x == p.lastX && y == p.lastY &&
			!p.lastPress.IsZero() && now.Sub(p.lastPress) <= p.doubleClick {
			p.clicks++
		} else {
			p.clicks = 1
		}
		p.lastButton, p.lastPress = btn, now
		p.ctrl.MouseDown(x, y, btn, mod, p.clicks)
	case terminal.MouseRelease:
		p.ctrl.MouseUp(x, y, buttons[e.Button], mod)
	case terminal.MouseMove:
		p.ctrl.MouseMove(x, y, e.Held)
	case terminal.MouseWheel:
		var hdist, dist float64
		switch e.Button {
		case terminal.MouseWheelUp:
			dist = 1
		case terminal.MouseWheelDown:
			dist = -1
		case terminal.MouseWheelLeft:
			hdist = -1
		case terminal.MouseWheelRight:
			hdist = 1
		}
		p.ctrl.MouseWheel(x, y, hdist, dist, mod)
	}
	p.lastX, p.lastY = x, y
}

// paste delivers pasted text as characters. A paste consisting only of
// file:// URIs is what terminals send for a file drop, and is offered to the
// controller as a drag and drop instead.
func (p *Pump) paste(text string) {
	if files := droppedFiles(text); len(files) > 0 && p.ctrl.AcceptsDragDrop(control.DragFiles) {
		for _, name := range files {
			p.ctrl.DropFile(name)
		}
		p.ctrl.PerformDragDrop(control.DragFiles, p.lastX, p.lastY)
		p.ctrl.ClearDragDrop(control.DragFiles)
		return
	}
	for _, r := range text {
		p.character(r, control.ModNone)
	}
}

func droppedFiles(text string) []string {
	var files []string
	for _, line := range strings.Fields(text) {
		u, err := url.Parse(line)
		if err != nil || u.Scheme != "file" || u.Path == "" {
			return nil
		}
		files = append(files, u.Path)
	}
	return files
}

func modifiers(alt, ctrl, shift bool) control.Modifier {
	var m control.Modifier
	if shift {
		m |= control.ModShift
	}
	if ctrl {
		m |= control.ModCtrl
	}
	if alt {
		m |= control.ModAlt
	}
	return m
}

var buttons = map[terminal.MouseButton]control.MouseButton{
	terminal.MouseNone:   control.MouseNone,
	terminal.MouseLeft:   control.MouseLeft,
	terminal.MouseMiddle: control.MouseMiddle,
	terminal.MouseRight:  control.MouseRight,
}

var keys = map[terminal.Key]control.Key{
	terminal.KeyEnter:     control.KeyEnter,
	terminal.KeyBackspace: control.KeyBackspace,
	terminal.KeyTab:       control.KeyTab,
	terminal.KeyEscape:    control.KeyEscape,
	terminal.KeyUp:        control.KeyUp,
	terminal.KeyDown:      control.KeyDown,
	terminal.KeyLeft:      control.KeyLeft,
	terminal.KeyRight:     control.KeyRight,
	terminal.KeyHome:      control.KeyHome,
	terminal.KeyEnd:       control.KeyEnd,
	terminal.KeyPageUp:    control.KeyPageUp,
	terminal.KeyPageDown:  control.KeyPageDown,
	terminal.KeyDelete:    control.KeyDelete,
	terminal.KeyInsert:    control.KeyInsert,
	terminal.KeyF1:        control.KeyF1,
	terminal.KeyF2:        control.KeyF2,
	terminal.KeyF3:        control.KeyF3,
	terminal.KeyF4:        control.KeyF4,
	terminal.KeyF5:        control.KeyF5,
	terminal.KeyF6:        control.KeyF6,
	terminal.KeyF7:        control.KeyF7,
	terminal.KeyF8:        control.KeyF8,
	terminal.KeyF9:        control.KeyF9,
	terminal.KeyF10:       control.KeyF10,
	terminal.KeyF11:       control.KeyF11,
	terminal.KeyF12:       control.KeyF12,
}
