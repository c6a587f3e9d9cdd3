package record

import (
	"time"

	"github.com/odvcencio/scribe/pkg/env"
	"github.com/odvcencio/scribe/pkg/replay/codec"
)

// Environment answers queries from a live environment and appends each
// answer to the sink before handing it back.
type Environment struct {
	live    env.Environment
	sink    Sink
	onFatal FatalHandler
}

var (
	_ env.Environment     = (*Environment)(nil)
	_ env.ClipboardWriter = (*Environment)(nil)
)

// NewEnvironment wraps live. A nil onFatal selects PanicOnFatal.
func NewEnvironment(live env.Environment, sink Sink, onFatal FatalHandler) *Environment {
	if onFatal == nil {
		onFatal = PanicOnFatal
	}
	return &Environment{live: live, sink: sink, onFatal: onFatal}
}

func (e *Environment) emit(ev codec.Event) {
	if err := e.sink.Append(ev); err != nil {
		e.onFatal(err)
	}
}

func (e *Environment) ClipboardText() string {
	text := e.live.ClipboardText()
	e.emit(codec.GetClipboardText{Text: text})
	return text
}

// SetClipboardText forwards to the live clipboard. Writes are not recorded.
func (e *Environment) SetClipboardText(text string) {
	if w, ok := e.live.(env.ClipboardWriter); ok {
		w.SetClipboardText(text)
	}
}

// Now returns the live time truncated to what the log can hold, so the
// caller sees exactly the value a replay will produce.
func (e *Environment) Now() time.Time {
	ns := e.live.Now().UnixNano()
	e.emit(codec.GetTime{Time: ns})
	return time.Unix(0, ns)
}

func (e *Environment) ReadFile(name string) ([]byte, error) {
	content, err := e.live.ReadFile(name)
	code := env.CodeOf(err)
	if code != env.CodeOK {
		content = nil
	}
	e.emit(codec.GetReadFile{Filename: name, Code: int32(code), Content: content})
	if code != env.CodeOK {
		// Replay can only reproduce the code, so hand back the same shape now.
		return nil, env.ErrorFor(code, "open", name)
	}
	return content, nil
}

func (e *Environment) ListDirectory(dir string) (env.Listing, error) {
	listing, err := e.live.ListDirectory(dir)
	code := env.CodeOf(err)
	if code != env.CodeOK {
		listing = env.Listing{}
	}
	e.emit(codec.GetDirectoryFiles{Dir: dir, Dirs: listing.Dirs, Files: listing.Files, Code: int32(code)})
	if code != env.CodeOK {
		return env.Listing{}, env.ErrorFor(code, "readdir", dir)
	}
	return listing, nil
}
