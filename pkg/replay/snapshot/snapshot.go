// Package snapshot indexes the environment answers stored in an event log so
// that replay can serve queries without touching the real environment.
package snapshot

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/odvcencio/scribe/pkg/env"
	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
	"github.com/odvcencio/scribe/pkg/replay/codec"
	"github.com/odvcencio/scribe/pkg/replay/eventlog"
)

// Policy selects which recorded answer a keyed lookup returns when the same
// key was queried more than once during recording.
type Policy int

const (
	// PolicySequential answers the n-th lookup of a key with the n-th
	// recorded value and repeats the last one once they run out.
	PolicySequential Policy = iota
	// PolicyLatest answers every lookup with the last recorded value.
	PolicyLatest
)

func (p Policy) String() string {
	switch p {
	case PolicySequential:
		return "sequential"
	case PolicyLatest:
		return "latest"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses a config value. Empty selects PolicySequential.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential":
		return PolicySequential, nil
	case "latest":
		return PolicyLatest, nil
	default:
		return 0, scribeerrors.Newf(scribeerrors.ErrCodeConfigInvalid, "unknown cache policy %q", s).
			WithRemediation("use \"sequential\" or \"latest\"")
	}
}

// FileEntry is one recorded file read.
type FileEntry struct {
	Content []byte
	Code    env.Code
}

// DirEntry is one recorded directory listing.
type DirEntry struct {
	Listing env.Listing
	Code    env.Code
}

// Stats reports how much the cache holds.
type Stats struct {
	Files       int
	Directories int
	FileReads   int
	DirReads    int
	Clipboards  int
	Times       int
}

// Cache holds every environment answer found in a log. Keyed lookups are
// safe for concurrent use.
type Cache struct {
	policy Policy

	files map[string][]FileEntry
	dirs  map[string][]DirEntry

	clipboards []string
	times      []int64

	mu         sync.Mutex
	fileCursor map[string]int
	dirCursor  map[string]int
}

// Build scans the whole log once. Query records are decoded and indexed;
// everything else is skipped. Any decode error aborts the build.
func Build(log *eventlog.Log, policy Policy) (*Cache, error) {
	c := &Cache{
		policy:     policy,
		files:      make(map[string][]FileEntry),
		dirs:       make(map[string][]DirEntry),
		fileCursor: make(map[string]int),
		dirCursor:  make(map[string]int),
	}

	r := log.Reader()
	for !r.Done() {
		k, err := r.PeekKind()
		if err != nil {
			return nil, err
		}
		if !k.IsQuery() {
			if _, err := r.Skip(); err != nil {
				return nil, err
			}
			continue
		}
		ev, err := r.Decode()
		if err != nil {
			return nil, err
		}
		c.add(ev)
	}
	return c, nil
}

func (c *Cache) add(ev codec.Event) {
	switch e := ev.(type) {
	case codec.GetClipboardText:
		c.clipboards = append(c.clipboards, e.Text)
	case codec.GetTime:
		c.times = append(c.times, e.Time)
	case codec.GetReadFile:
		c.files[e.Filename] = append(c.files[e.Filename], FileEntry{Content: e.Content, Code: env.Code(e.Code)})
	case codec.GetDirectoryFiles:
		c.dirs[e.Dir] = append(c.dirs[e.Dir], DirEntry{
			Listing: env.Listing{Dirs: e.Dirs, Files: e.Files},
			Code:    env.Code(e.Code),
		})
	}
}

// Policy returns the lookup policy the cache was built with.
func (c *Cache) Policy() Policy { return c.policy }

// Clipboard returns the last recorded clipboard text.
func (c *Cache) Clipboard() (string, bool) {
	if len(c.clipboards) == 0 {
		return "", false
	}
	return c.clipboards[len(c.clipboards)-1], true
}

// Time returns the last recorded wall-clock read.
func (c *Cache) Time() (time.Time, bool) {
	if len(c.times) == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, c.times[len(c.times)-1]), true
}

// ReadFile answers a file read from the recording. The recorded error, if
// any, is rebuilt so errors.Is works. A name never recorded is a CACHE_MISS.
func (c *Cache) ReadFile(name string) ([]byte, error) {
	entries, ok := c.files[name]
	if !ok {
		return nil, miss("file", name)
	}
	e := entries[c.next(c.fileCursor, name, len(entries))]
	if err := env.ErrorFor(e.Code, "open", name); err != nil {
		return nil, err
	}
	return bytes.Clone(e.Content), nil
}

// ListDirectory answers a listing from the recording. A path never recorded
// is a CACHE_MISS.
func (c *Cache) ListDirectory(dir string) (env.Listing, error) {
	entries, ok := c.dirs[dir]
	if !ok {
		return env.Listing{}, miss("directory", dir)
	}
	e := entries[c.next(c.dirCursor, dir, len(entries))]
	if err := env.ErrorFor(e.Code, "readdir", dir); err != nil {
		return env.Listing{}, err
	}
	return env.Listing{
		Dirs:  slices.Clone(e.Listing.Dirs),
		Files: slices.Clone(e.Listing.Files),
	}, nil
}

// next picks the entry index for a lookup of key and advances its cursor.
func (c *Cache) next(cursors map[string]int, key string, n int) int {
	if c.policy == PolicyLatest {
		return n - 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := cursors[key]
	if i < n-1 {
		cursors[key] = i + 1
	}
	return i
}

// Reset rewinds sequential cursors so a second replay sees the same answers.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.fileCursor)
	clear(c.dirCursor)
}

// Stats reports entry counts.
func (c *Cache) Stats() Stats {
	s := Stats{
		Files:       len(c.files),
		Directories: len(c.dirs),
		Clipboards:  len(c.clipboards),
		Times:       len(c.times),
	}
	for _, e := range c.files {
		s.FileReads += len(e)
	}
	for _, e := range c.dirs {
		s.DirReads += len(e)
	}
	return s
}

func miss(what, key string) error {
	return scribeerrors.Newf(scribeerrors.ErrCodeCacheMiss, "%s %q was not recorded", what, key).
		WithContext("key", key).
		WithRemediation("re-record the session; replay cannot answer queries the recording never made")
}
