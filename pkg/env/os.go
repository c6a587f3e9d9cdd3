package env

import (
	"os"
	"sort"
	"sync"
	"time"
)

// OS answers queries from the real operating system. The clipboard is
// process-local: text copied inside the editor is what paste returns.
type OS struct {
	clipboard Clipboard
	clock     func() time.Time
}

var (
	_ Environment     = (*OS)(nil)
	_ ClipboardWriter = (*OS)(nil)
)

// NewOS returns an environment backed by the OS and the system clock.
func NewOS() *OS {
	return &OS{clock: time.Now}
}

func (o *OS) ClipboardText() string {
	return o.clipboard.Text()
}

func (o *OS) SetClipboardText(text string) {
	o.clipboard.SetText(text)
}

func (o *OS) Now() time.Time {
	if o.clock == nil {
		return time.Now()
	}
	return o.clock()
}

func (o *OS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// ListDirectory splits entries into subdirectories and files, each sorted.
func (o *OS) ListDirectory(dir string) (Listing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Listing{}, err
	}
	var listing Listing
	for _, entry := range entries {
		if entry.IsDir() {
			listing.Dirs = append(listing.Dirs, entry.Name())
		} else {
			listing.Files = append(listing.Files, entry.Name())
		}
	}
	sort.Strings(listing.Dirs)
	sort.Strings(listing.Files)
	return listing, nil
}

// Clipboard is a mutex-guarded text buffer.
type Clipboard struct {
	mu   sync.Mutex
	text string
}

func (c *Clipboard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

func (c *Clipboard) SetText(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
}
