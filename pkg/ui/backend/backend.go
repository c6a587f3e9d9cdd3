// Package backend defines the terminal surface the editor draws on and reads
// input from. The tcell implementation drives a real terminal; the sim
// implementation runs headless for tests and replays.
package backend

import "github.com/odvcencio/scribe/pkg/ui/terminal"

// Backend is the terminal abstraction layer.
type Backend interface {
	// Init enters raw mode and enables mouse, paste and focus reporting.
	Init() error

	// Fini restores the terminal.
	Fini()

	Size() (width, height int)

	// SetContent sets a cell at position (x, y). comb holds combining
	// characters and may be nil.
	SetContent(x, y int, mainc rune, comb []rune, style Style)

	// Show pushes the buffered cells to the terminal.
	Show()

	Clear()
	HideCursor()
	SetCursorPos(x, y int)

	// PollEvent blocks until an event is available. It returns nil once the
	// backend is shutting down.
	PollEvent() terminal.Event

	// PostEvent queues an event as if it came from the terminal.
	PostEvent(ev terminal.Event) error

	// Sync forces a full redraw on next Show.
	Sync()
}

// RenderTarget is the subset of Backend that drawing code needs.
type RenderTarget interface {
	Size() (width, height int)
	SetContent(x, y int, mainc rune, comb []rune, style Style)
}
