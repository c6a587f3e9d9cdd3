package playback

import (
	"sync"
	"time"

	"github.com/odvcencio/scribe/pkg/env"
	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
	"github.com/odvcencio/scribe/pkg/replay/snapshot"
	"github.com/odvcencio/scribe/pkg/telemetry"
)

// Environment answers queries during replay. Clipboard and time come from the
// values recorded right after the event being dispatched; files and
// directories come from the snapshot cache. The first miss is latched and
// ends the replay once the current dispatch returns. After hand-off every
// query goes to the live environment instead.
type Environment struct {
	mu    sync.Mutex
	cache *snapshot.Cache
	live  env.Environment

	clips []string
	times []int64

	lastClip    string
	hasLastClip bool
	lastTime    int64
	hasLastTime bool

	err error
}

var (
	_ env.Environment     = (*Environment)(nil)
	_ env.ClipboardWriter = (*Environment)(nil)
)

func newEnvironment() *Environment {
	return &Environment{}
}

func (e *Environment) setCache(c *snapshot.Cache) {
	e.mu.Lock()
	e.cache = c
	e.mu.Unlock()
}

// prime replaces the per-dispatch queues with the values recorded right
// after the event about to be dispatched.
func (e *Environment) prime(clips []string, times []int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clips = clips
	e.times = times
}

// handOff routes every later query to live.
func (e *Environment) handOff(live env.Environment) {
	e.mu.Lock()
	e.live = live
	e.mu.Unlock()
}

// Live returns the environment answering queries after hand-off, nil while
// the log is still being replayed.
func (e *Environment) Live() env.Environment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

func (e *Environment) ClipboardText() string {
	if live := e.Live(); live != nil {
		return live.ClipboardText()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.clips) > 0 {
		e.lastClip, e.hasLastClip = e.clips[0], true
		e.clips = e.clips[1:]
		return e.lastClip
	}
	if e.hasLastClip {
		return e.lastClip
	}
	if e.cache != nil {
		if text, ok := e.cache.Clipboard(); ok {
			return text
		}
	}
	e.missLocked("clipboard", "GetClipboardText")
	return ""
}

// SetClipboardText is a write and has no effect on replayed answers. After
// hand-off it reaches the live clipboard.
func (e *Environment) SetClipboardText(text string) {
	if w, ok := e.Live().(env.ClipboardWriter); ok {
		w.SetClipboardText(text)
	}
}

func (e *Environment) Now() time.Time {
	if live := e.Live(); live != nil {
		return live.Now()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.times) > 0 {
		e.lastTime, e.hasLastTime = e.times[0], true
		e.times = e.times[1:]
		return time.Unix(0, e.lastTime)
	}
	if e.hasLastTime {
		return time.Unix(0, e.lastTime)
	}
	if e.cache != nil {
		if t, ok := e.cache.Time(); ok {
			return t
		}
	}
	e.missLocked("time", "GetTime")
	return time.Unix(0, 0)
}

func (e *Environment) ReadFile(name string) ([]byte, error) {
	if live := e.Live(); live != nil {
		return live.ReadFile(name)
	}
	cache := e.snapshot()
	if cache == nil {
		return nil, e.miss("file "+name, "GetReadFile")
	}
	content, err := cache.ReadFile(name)
	if scribeerrors.IsCode(err, scribeerrors.ErrCodeCacheMiss) {
		e.latch(err, "GetReadFile")
	}
	return content, err
}

func (e *Environment) ListDirectory(dir string) (env.Listing, error) {
	if live := e.Live(); live != nil {
		return live.ListDirectory(dir)
	}
	cache := e.snapshot()
	if cache == nil {
		return env.Listing{}, e.miss("directory "+dir, "GetDirectoryFiles")
	}
	listing, err := cache.ListDirectory(dir)
	if scribeerrors.IsCode(err, scribeerrors.ErrCodeCacheMiss) {
		e.latch(err, "GetDirectoryFiles")
	}
	return listing, err
}

// Err returns the latched miss, if any.
func (e *Environment) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *Environment) snapshot() *snapshot.Cache {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache
}

func (e *Environment) miss(what, query string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.missLocked(what, query)
}

func (e *Environment) missLocked(what, query string) error {
	err := scribeerrors.Newf(scribeerrors.ErrCodeCacheMiss, "%s was never recorded", what).
		WithContext("query", query)
	e.latchLocked(err, query)
	return err
}

func (e *Environment) latch(err error, query string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.latchLocked(err, query)
}

func (e *Environment) latchLocked(err error, query string) {
	telemetry.CacheMisses.WithLabelValues(query).Inc()
	if e.err == nil {
		e.err = err
	}
}
