// Package env abstracts the non-deterministic parts of the outside world the
// editor reads: clipboard, wall clock, file contents and directory listings.
package env

import (
	"time"
)

// Environment answers environment queries. Implementations decide whether
// the answer comes from the OS, is recorded on the way, or is replayed.
type Environment interface {
	ClipboardText() string
	Now() time.Time
	ReadFile(name string) ([]byte, error)
	ListDirectory(dir string) (Listing, error)
}

// Listing is one directory listing. Both slices are sorted by name.
type Listing struct {
	Dirs  []string
	Files []string
}

// ClipboardWriter is implemented by environments that own a clipboard.
// Writes are not queries and are never recorded.
type ClipboardWriter interface {
	SetClipboardText(text string)
}
