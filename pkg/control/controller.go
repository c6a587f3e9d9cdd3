// Package control defines the input contract of a stateful editor controller
// and the registry that hands out the small integer ids used to address
// controllers in recorded event logs.
package control

// Controller receives window input. Every method runs synchronously on the
// caller's goroutine; implementations are not expected to be safe for
// concurrent use.
type Controller interface {
	KeyboardButton(button Key, mod Modifier)
	KeyboardCharacter(ch byte, mod Modifier)
	KeyboardUnicode(ch Unicode, mod Modifier)

	// Update advances time-based state. Draw renders the current state.
	Update()
	Draw()

	MouseWheel(x, y int32, hdist, dist float64, mod Modifier)
	MouseDown(x, y int32, button MouseButton, mod Modifier, clicks int32)
	MouseUp(x, y int32, button MouseButton, mod Modifier)
	MouseMove(x, y int32, buttons uint8)

	LosesFocus()
	GainsFocus()

	AcceptsDragDrop(t DragType) bool
	PerformDragDrop(t DragType, x, y int32)
	ClearDragDrop(t DragType)

	SetSize(width, height float64)
	// CloseControlManager asks the controller to close. It returns false to
	// veto the close (for example on unsaved changes).
	CloseControlManager() bool

	RefreshWindow(redrawNow bool)
	RefreshWindowRectangle(r Rect, redrawNow bool)

	DropFile(filename string)
}
