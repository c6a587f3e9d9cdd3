package codec

import "github.com/odvcencio/scribe/pkg/control"

// Event is one decoded record.
type Event interface {
	Kind() Kind
}

// Targeted is implemented by every controller event.
type Targeted interface {
	Event
	TargetID() control.ID
}

type KeyboardButton struct {
	Target control.ID
	Button control.Key
	Mod    control.Modifier
}

type KeyboardCharacter struct {
	Target control.ID
	Char   byte
	Mod    control.Modifier
}

type KeyboardUnicode struct {
	Target control.ID
	Char   control.Unicode
	Mod    control.Modifier
}

type Update struct{ Target control.ID }

type Draw struct{ Target control.ID }

type MouseWheel struct {
	Target      control.ID
	X, Y        int32
	HDist, Dist float64
	Mod         control.Modifier
}

type MouseDown struct {
	Target control.ID
	X, Y   int32
	Button control.MouseButton
	Mod    control.Modifier
	Clicks int32
}

type MouseUp struct {
	Target control.ID
	X, Y   int32
	Button control.MouseButton
	Mod    control.Modifier
}

type MouseMove struct {
	Target  control.ID
	X, Y    int32
	Buttons uint8
}

type LosesFocus struct{ Target control.ID }

type GainsFocus struct{ Target control.ID }

type AcceptsDragDrop struct {
	Target control.ID
	Type   control.DragType
}

type PerformDragDrop struct {
	Target control.ID
	Type   control.DragType
	X, Y   int32
}

type ClearDragDrop struct {
	Target control.ID
	Type   control.DragType
}

type SetSize struct {
	Target        control.ID
	Width, Height float64
}

type CloseControlManager struct{ Target control.ID }

type RefreshWindow struct {
	Target    control.ID
	RedrawNow bool
}

type RefreshWindowRectangle struct {
	Target    control.ID
	Rect      control.Rect
	RedrawNow bool
}

type DropFile struct {
	Target   control.ID
	Filename string
}

// GetClipboardText records the clipboard contents returned to the editor.
type GetClipboardText struct {
	Text string
}

// GetTime records a wall-clock read as Unix nanoseconds.
type GetTime struct {
	Time int64
}

// GetReadFile records a file read. Content is empty when Code is non-zero.
type GetReadFile struct {
	Filename string
	Code     int32
	Content  []byte
}

// GetDirectoryFiles records a directory listing. Code is the listing status.
type GetDirectoryFiles struct {
	Dir   string
	Dirs  []string
	Files []string
	Code  int32
}

func (KeyboardButton) Kind() Kind         { return KindKeyboardButton }
func (KeyboardCharacter) Kind() Kind      { return KindKeyboardCharacter }
func (KeyboardUnicode) Kind() Kind        { return KindKeyboardUnicode }
func (Update) Kind() Kind                 { return KindUpdate }
func (Draw) Kind() Kind                   { return KindDraw }
func (MouseWheel) Kind() Kind             { return KindMouseWheel }
func (MouseDown) Kind() Kind              { return KindMouseDown }
func (MouseUp) Kind() Kind                { return KindMouseUp }
func (MouseMove) Kind() Kind              { return KindMouseMove }
func (LosesFocus) Kind() Kind             { return KindLosesFocus }
func (GainsFocus) Kind() Kind             { return KindGainsFocus }
func (AcceptsDragDrop) Kind() Kind        { return KindAcceptsDragDrop }
func (PerformDragDrop) Kind() Kind        { return KindPerformDragDrop }
func (ClearDragDrop) Kind() Kind          { return KindClearDragDrop }
func (SetSize) Kind() Kind                { return KindSetSize }
func (CloseControlManager) Kind() Kind    { return KindCloseControlManager }
func (RefreshWindow) Kind() Kind          { return KindRefreshWindow }
func (RefreshWindowRectangle) Kind() Kind { return KindRefreshWindowRectangle }
func (DropFile) Kind() Kind               { return KindDropFile }
func (GetClipboardText) Kind() Kind       { return KindGetClipboardText }
func (GetTime) Kind() Kind                { return KindGetTime }
func (GetReadFile) Kind() Kind            { return KindGetReadFile }
func (GetDirectoryFiles) Kind() Kind      { return KindGetDirectoryFiles }

func (e KeyboardButton) TargetID() control.ID         { return e.Target }
func (e KeyboardCharacter) TargetID() control.ID      { return e.Target }
func (e KeyboardUnicode) TargetID() control.ID        { return e.Target }
func (e Update) TargetID() control.ID                 { return e.Target }
func (e Draw) TargetID() control.ID                   { return e.Target }
func (e MouseWheel) TargetID() control.ID             { return e.Target }
func (e MouseDown) TargetID() control.ID              { return e.Target }
func (e MouseUp) TargetID() control.ID                { return e.Target }
func (e MouseMove) TargetID() control.ID              { return e.Target }
func (e LosesFocus) TargetID() control.ID             { return e.Target }
func (e GainsFocus) TargetID() control.ID             { return e.Target }
func (e AcceptsDragDrop) TargetID() control.ID        { return e.Target }
func (e PerformDragDrop) TargetID() control.ID        { return e.Target }
func (e ClearDragDrop) TargetID() control.ID          { return e.Target }
func (e SetSize) TargetID() control.ID                { return e.Target }
func (e CloseControlManager) TargetID() control.ID    { return e.Target }
func (e RefreshWindow) TargetID() control.ID          { return e.Target }
func (e RefreshWindowRectangle) TargetID() control.ID { return e.Target }
func (e DropFile) TargetID() control.ID               { return e.Target }
