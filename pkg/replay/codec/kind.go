// Package codec defines the binary representation of recorded events.
//
// A log is a bare sequence of records with no header:
//
//	record := kind:byte [target:byte] payload
//
// Integers are little-endian (int32 for "int", int64 for "long"), doubles are
// IEEE-754 bits and strings are a uint64 length followed by raw bytes. The
// payload shape is fixed per kind; only strings carry a length.
package codec

import "fmt"

// Kind tags a record. Zero is never written.
type Kind byte

const (
	KindKeyboardButton Kind = iota + 1
	KindKeyboardCharacter
	KindKeyboardUnicode
	KindUpdate
	KindDraw
	KindMouseWheel
	KindMouseDown
	KindMouseUp
	KindMouseMove
	KindLosesFocus
	KindGainsFocus
	KindAcceptsDragDrop
	KindPerformDragDrop
	KindClearDragDrop
	KindSetSize
	KindCloseControlManager
	KindRefreshWindow
	KindRefreshWindowRectangle
	KindDropFile
	KindGetClipboardText
	KindGetTime
	KindGetReadFile
	KindGetDirectoryFiles

	kindEnd
)

var kindNames = [...]string{
	KindKeyboardButton:         "KeyboardButton",
	KindKeyboardCharacter:      "KeyboardCharacter",
	KindKeyboardUnicode:        "KeyboardUnicode",
	KindUpdate:                 "Update",
	KindDraw:                   "Draw",
	KindMouseWheel:             "MouseWheel",
	KindMouseDown:              "MouseDown",
	KindMouseUp:                "MouseUp",
	KindMouseMove:              "MouseMove",
	KindLosesFocus:             "LosesFocus",
	KindGainsFocus:             "GainsFocus",
	KindAcceptsDragDrop:        "AcceptsDragDrop",
	KindPerformDragDrop:        "PerformDragDrop",
	KindClearDragDrop:          "ClearDragDrop",
	KindSetSize:                "SetSize",
	KindCloseControlManager:    "CloseControlManager",
	KindRefreshWindow:          "RefreshWindow",
	KindRefreshWindowRectangle: "RefreshWindowRectangle",
	KindDropFile:               "DropFile",
	KindGetClipboardText:       "GetClipboardText",
	KindGetTime:                "GetTime",
	KindGetReadFile:            "GetReadFile",
	KindGetDirectoryFiles:      "GetDirectoryFiles",
}

// Kinds lists every valid kind in wire order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindEnd-1)
	for k := Kind(1); k < kindEnd; k++ {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k > 0 && k < kindEnd
}

// IsQuery reports whether k is an environment query. Queries are global and
// carry no target id.
func (k Kind) IsQuery() bool {
	switch k {
	case KindGetClipboardText, KindGetTime, KindGetReadFile, KindGetDirectoryFiles:
		return true
	default:
		return false
	}
}

// HasTarget reports whether records of kind k carry a target id.
func (k Kind) HasTarget() bool {
	return k.Valid() && !k.IsQuery()
}

func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(0x%02x)", byte(k))
}

// fixedPayload is the payload size after the kind byte, target included.
// Kinds with strings are absent.
var fixedPayload = map[Kind]int{
	KindKeyboardButton:         1 + 4 + 1,
	KindKeyboardCharacter:      1 + 1 + 1,
	KindKeyboardUnicode:        1 + 1 + 4 + 1,
	KindUpdate:                 1,
	KindDraw:                   1,
	KindMouseWheel:             1 + 4 + 4 + 8 + 8 + 1,
	KindMouseDown:              1 + 4 + 4 + 4 + 1 + 4,
	KindMouseUp:                1 + 4 + 4 + 4 + 1,
	KindMouseMove:              1 + 4 + 4 + 1,
	KindLosesFocus:             1,
	KindGainsFocus:             1,
	KindAcceptsDragDrop:        1 + 4,
	KindPerformDragDrop:        1 + 4 + 4 + 4,
	KindClearDragDrop:          1 + 4,
	KindSetSize:                1 + 8 + 8,
	KindCloseControlManager:    1,
	KindRefreshWindow:          1 + 1,
	KindRefreshWindowRectangle: 1 + 4*4 + 1,
	KindGetTime:                8,
}
