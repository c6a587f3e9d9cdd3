// Package inspect renders event logs for people: one line per event, a
// per-kind summary and a diff between two recordings.
package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/odvcencio/scribe/pkg/replay/codec"
)

// maxShown caps how much of a string or file body is printed.
const maxShown = 48

// Describe formats ev on one line without position information, so two logs
// with the same events describe identically.
func Describe(ev codec.Event) string {
	var b strings.Builder
	b.WriteString(ev.Kind().String())
	if t, ok := ev.(codec.Targeted); ok {
		fmt.Fprintf(&b, " target=%d", t.TargetID())
	}
	field := func(name string, v any) {
		fmt.Fprintf(&b, " %s=%v", name, v)
	}

	switch e := ev.(type) {
	case codec.KeyboardButton:
		field("key", e.Button)
		field("mod", e.Mod)
	case codec.KeyboardCharacter:
		field("char", strconv.QuoteRuneToASCII(rune(e.Char)))
		field("mod", e.Mod)
	case codec.KeyboardUnicode:
		field("char", strconv.QuoteRune(e.Char.Rune()))
		field("mod", e.Mod)
	case codec.MouseWheel:
		field("x", e.X)
		field("y", e.Y)
		field("hdist", e.HDist)
		field("dist", e.Dist)
		field("mod", e.Mod)
	case codec.MouseDown:
		field("x", e.X)
		field("y", e.Y)
		field("button", e.Button)
		field("mod", e.Mod)
		field("clicks", e.Clicks)
	case codec.MouseUp:
		field("x", e.X)
		field("y", e.Y)
		field("button", e.Button)
		field("mod", e.Mod)
	case codec.MouseMove:
		field("x", e.X)
		field("y", e.Y)
		field("buttons", fmt.Sprintf("0x%02x", e.Buttons))
	case codec.AcceptsDragDrop:
		field("type", e.Type)
	case codec.ClearDragDrop:
		field("type", e.Type)
	case codec.PerformDragDrop:
		field("type", e.Type)
		field("x", e.X)
		field("y", e.Y)
	case codec.SetSize:
		field("width", e.Width)
		field("height", e.Height)
	case codec.RefreshWindow:
		field("redraw", e.RedrawNow)
	case codec.RefreshWindowRectangle:
		field("rect", fmt.Sprintf("%d,%d,%dx%d", e.Rect.X, e.Rect.Y, e.Rect.W, e.Rect.H))
		field("redraw", e.RedrawNow)
	case codec.DropFile:
		field("file", quote(e.Filename))
	case codec.GetClipboardText:
		field("text", quote(e.Text))
	case codec.GetTime:
		field("ns", e.Time)
	case codec.GetReadFile:
		field("file", quote(e.Filename))
		field("code", e.Code)
		field("bytes", len(e.Content))
		if len(e.Content) > 0 {
			field("content", quote(string(e.Content)))
		}
	case codec.GetDirectoryFiles:
		field("dir", quote(e.Dir))
		field("code", e.Code)
		field("dirs", "["+strings.Join(e.Dirs, ",")+"]")
		field("files", "["+strings.Join(e.Files, ",")+"]")
	}
	return b.String()
}

func quote(s string) string {
	if len(s) > maxShown {
		return strconv.Quote(s[:maxShown]) + "..."
	}
	return strconv.Quote(s)
}
