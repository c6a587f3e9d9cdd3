package editor

import (
	"fmt"
	"path/filepath"

	"github.com/odvcencio/scribe/pkg/control"
	"github.com/odvcencio/scribe/pkg/logging"
)

type entry struct {
	name string
	dir  bool
}

func (en entry) label() string {
	if en.dir {
		return en.name + "/"
	}
	return en.name
}

// browser is the directory picker shown by Ctrl+O.
type browser struct {
	dir      string
	entries  []entry
	selected int
}

// OpenDirectory lists dir and switches to the picker. Directories come
// first, both groups sorted by name, with ".." on top.
func (e *Editor) OpenDirectory(dir string) {
	listing, err := e.env.ListDirectory(dir)
	if err != nil {
		e.status = fmt.Sprintf("list failed: %v", err)
		_ = e.logger.Warn(logging.CategoryUI, "list_failed", err.Error(), map[string]any{"dir": dir})
		return
	}
	entries := []entry{{name: "..", dir: true}}
	for _, d := range listing.Dirs {
		entries = append(entries, entry{name: d, dir: true})
	}
	for _, f := range listing.Files {
		entries = append(entries, entry{name: f})
	}
	e.browse = browser{dir: filepath.Clean(dir), entries: entries}
	e.mode = modeBrowse
	e.top = 0
	e.status = fmt.Sprintf("%d entries", len(entries)-1)
}

func (e *Editor) browseKey(button control.Key) {
	b := &e.browse
	switch button {
	case control.KeyUp:
		b.selected = max(0, b.selected-1)
	case control.KeyDown:
		b.selected = min(len(b.entries)-1, b.selected+1)
	case control.KeyPageUp:
		b.selected = max(0, b.selected-e.pageSize())
	case control.KeyPageDown:
		b.selected = min(len(b.entries)-1, b.selected+e.pageSize())
	case control.KeyHome:
		b.selected = 0
	case control.KeyEnd:
		b.selected = len(b.entries) - 1
	case control.KeyEnter:
		e.browseEnter()
		return
	case control.KeyEscape:
		e.mode = modeText
		e.status = ""
		e.top = 0
	}
	e.scrollToCursor()
}

func (e *Editor) browseEnter() {
	b := e.browse
	if b.selected < 0 || b.selected >= len(b.entries) {
		return
	}
	en := b.entries[b.selected]
	target := filepath.Join(b.dir, en.name)
	if en.dir {
		e.OpenDirectory(target)
		return
	}
	if e.dirty {
		e.status = "unsaved changes, save first"
		return
	}
	_ = e.Open(target)
}
