package eventlog

import (
	"os"

	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
	"github.com/odvcencio/scribe/pkg/replay/codec"
)

// Log is a fully loaded event log. The buffer is owned by the Log and never
// mutated after load.
type Log struct {
	path string
	data []byte
}

// Load reads the whole file at path.
func Load(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, scribeerrors.Wrap(err, scribeerrors.ErrCodeLogIO, "read event log").
			WithContext("path", path).
			WithRemediation("check the -log path points at a file written by `scribe record`")
	}
	return &Log{path: path, data: data}, nil
}

// FromBytes wraps an in-memory log. The slice is copied.
func FromBytes(b []byte) *Log {
	return &Log{data: append([]byte(nil), b...)}
}

// Path returns the file the log was loaded from, empty for in-memory logs.
func (l *Log) Path() string { return l.path }

// Size is the log length in bytes.
func (l *Log) Size() int { return len(l.data) }

// Bytes exposes the raw log. Callers must not modify it.
func (l *Log) Bytes() []byte { return l.data }

// Reader returns a fresh cursor at offset 0.
func (l *Log) Reader() *codec.Reader { return codec.NewReader(l.data) }

// Entry is a decoded event and the offset its record starts at.
type Entry struct {
	Offset int
	Event  codec.Event
}

// Entries decodes every record. On a decode error it returns the entries
// read so far together with the error.
func (l *Log) Entries() ([]Entry, error) {
	r := l.Reader()
	var out []Entry
	for !r.Done() {
		off := r.Pos()
		ev, err := r.Decode()
		if err != nil {
			return out, err
		}
		out = append(out, Entry{Offset: off, Event: ev})
	}
	return out, nil
}

// Events decodes every record in order.
func (l *Log) Events() ([]codec.Event, error) {
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}
	events := make([]codec.Event, len(entries))
	for i, e := range entries {
		events[i] = e.Event
	}
	return events, nil
}
