package control

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Modifier is a bitmask of held modifier keys.
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << 0
	ModCtrl  Modifier = 1 << 1
	ModAlt   Modifier = 1 << 2
	ModSuper Modifier = 1 << 3
)

// Has reports whether all bits of m2 are set in m.
func (m Modifier) Has(m2 Modifier) bool {
	return m&m2 == m2
}

func (m Modifier) String() string {
	if m == ModNone {
		return "none"
	}
	var parts []string
	for _, p := range []struct {
		bit  Modifier
		name string
	}{{ModShift, "shift"}, {ModCtrl, "ctrl"}, {ModAlt, "alt"}, {ModSuper, "super"}} {
		if m.Has(p.bit) {
			parts = append(parts, p.name)
		}
	}
	if rest := m &^ (ModShift | ModCtrl | ModAlt | ModSuper); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%02x", uint8(rest)))
	}
	return strings.Join(parts, "+")
}

// MouseButton identifies a pointer button.
type MouseButton int32

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
)

func (b MouseButton) String() string {
	switch b {
	case MouseNone:
		return "none"
	case MouseLeft:
		return "left"
	case MouseMiddle:
		return "middle"
	case MouseRight:
		return "right"
	default:
		return fmt.Sprintf("button(%d)", int32(b))
	}
}

// Key is a non-character key code delivered through KeyboardButton.
type Key int32

const (
	KeyNone Key = iota
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

var keyNames = map[Key]string{
	KeyNone: "none", KeyEnter: "enter", KeyBackspace: "backspace", KeyTab: "tab",
	KeyEscape: "escape", KeyUp: "up", KeyDown: "down", KeyLeft: "left",
	KeyRight: "right", KeyHome: "home", KeyEnd: "end", KeyPageUp: "pgup",
	KeyPageDown: "pgdn", KeyDelete: "delete", KeyInsert: "insert",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	if k >= KeyF1 && k <= KeyF12 {
		return fmt.Sprintf("f%d", int32(k-KeyF1)+1)
	}
	return fmt.Sprintf("key(%d)", int32(k))
}

// DragType classifies a drag-and-drop payload.
type DragType int32

const (
	DragNone DragType = iota
	DragFiles
	DragText
)

func (d DragType) String() string {
	switch d {
	case DragNone:
		return "none"
	case DragFiles:
		return "files"
	case DragText:
		return "text"
	default:
		return fmt.Sprintf("drag(%d)", int32(d))
	}
}

// Rect is a window-relative rectangle in cells.
type Rect struct {
	X, Y, W, H int32
}

// Unicode is one UTF-8 encoded character of up to four bytes.
type Unicode struct {
	Len   uint8
	Bytes [4]byte
}

// NewUnicode encodes r. Invalid runes encode as U+FFFD.
func NewUnicode(r rune) Unicode {
	var u Unicode
	u.Len = uint8(utf8.EncodeRune(u.Bytes[:], r))
	return u
}

// Rune decodes the character, returning utf8.RuneError for malformed input.
func (u Unicode) Rune() rune {
	if u.Len == 0 || u.Len > 4 {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRune(u.Bytes[:u.Len])
	return r
}

func (u Unicode) String() string {
	return string(u.Rune())
}
