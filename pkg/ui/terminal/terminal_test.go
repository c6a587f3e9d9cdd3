package terminal

import "testing"

func TestKeyConstantsAreUnique(t *testing.T) {
	keys := []Key{
		KeyNone, KeyRune, KeyEnter, KeyBackspace, KeyTab, KeyEscape,
		KeyUp, KeyDown, KeyLeft, KeyRight, KeyHome, KeyEnd,
		KeyPageUp, KeyPageDown, KeyDelete, KeyInsert,
		KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6,
		KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12,
	}
	seen := make(map[Key]bool)
	for _, k := range keys {
		if seen[k] {
			t.Errorf("duplicate key constant: %d", k)
		}
		seen[k] = true
	}
}

func TestEventInterface(t *testing.T) {
	var _ Event = KeyEvent{}
	var _ Event = ResizeEvent{}
	var _ Event = MouseEvent{}
	var _ Event = PasteEvent{}
	var _ Event = FocusEvent{}
}

func TestMouseButtonBit(t *testing.T) {
	tests := map[MouseButton]uint8{
		MouseLeft:      HeldLeft,
		MouseMiddle:    HeldMiddle,
		MouseRight:     HeldRight,
		MouseWheelUp:   0,
		MouseNone:      0,
		MouseWheelLeft: 0,
	}
	for b, want := range tests {
		if got := b.Bit(); got != want {
			t.Errorf("MouseButton(%d).Bit() = %d, want %d", b, got, want)
		}
	}
}
