// Package eventlog persists encoded events to a file and loads them back.
//
// Record mode appends one record at a time and flushes after each, so a
// crash loses at most the event being written. Play mode reads the whole
// file into memory up front and hands out cursors over it.
package eventlog

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
	"github.com/odvcencio/scribe/pkg/replay/codec"
	"github.com/odvcencio/scribe/pkg/telemetry"
)

// File is the write capability the log needs from its backing store.
type File interface {
	io.Writer
	Sync() error
	Close() error
}

// OpenFunc opens the backing file. appendMode keeps existing content.
type OpenFunc func(path string, appendMode bool) (File, error)

// OpenFile creates parent directories and opens path for writing.
func OpenFile(path string, appendMode bool) (File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(path, flags, 0o644)
}

// Options controls how a Writer persists records.
type Options struct {
	// Sync calls File.Sync after every flush.
	Sync bool
	// Append keeps an existing log instead of truncating it.
	Append bool
	// Open overrides how the file is opened. Defaults to OpenFile.
	Open OpenFunc
}

// Stats counts what a Writer has persisted.
type Stats struct {
	Events int64
	Bytes  int64
}

// Writer appends encoded events to a file. Safe for concurrent use; appends
// are serialized so records never interleave.
type Writer struct {
	mu      sync.Mutex
	path    string
	file    File
	buf     *bufio.Writer
	scratch codec.Writer
	sync    bool
	stats   Stats
	err     error
	closed  bool
}

// Create opens path according to opts and returns a Writer over it.
func Create(path string, opts Options) (*Writer, error) {
	open := opts.Open
	if open == nil {
		open = OpenFile
	}
	f, err := open(path, opts.Append)
	if err != nil {
		return nil, scribeerrors.Wrap(err, scribeerrors.ErrCodeLogIO, "open event log").
			WithContext("path", path)
	}
	w := NewWriter(f, opts)
	w.path = path
	return w, nil
}

// NewWriter wraps an already open file.
func NewWriter(f File, opts Options) *Writer {
	return &Writer{
		file: f,
		buf:  bufio.NewWriter(f),
		sync: opts.Sync,
	}
}

// Path returns the file path the writer was created with, if any.
func (w *Writer) Path() string { return w.path }

// Append encodes ev and makes it durable before returning. The first I/O
// failure is latched and returned by every later call.
func (w *Writer) Append(ev codec.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}
	if w.closed {
		return scribeerrors.New(scribeerrors.ErrCodeLogIO, "append to closed event log")
	}

	start := time.Now()
	w.scratch.Reset()
	if err := w.scratch.Encode(ev); err != nil {
		return err
	}
	rec := w.scratch.Bytes()

	if _, err := w.buf.Write(rec); err != nil {
		return w.fail(err, "write event")
	}
	if err := w.buf.Flush(); err != nil {
		return w.fail(err, "flush event")
	}
	if w.sync {
		if err := w.file.Sync(); err != nil {
			return w.fail(err, "sync event log")
		}
	}

	w.stats.Events++
	w.stats.Bytes += int64(len(rec))
	telemetry.EventsRecorded.WithLabelValues(ev.Kind().String()).Inc()
	telemetry.ObserveFlush(start)
	return nil
}

func (w *Writer) fail(err error, op string) error {
	e := scribeerrors.Wrap(err, scribeerrors.ErrCodeLogIO, op).
		WithContext("offset", w.stats.Bytes)
	if w.path != "" {
		e = e.WithContext("path", w.path)
	}
	w.err = e
	return e
}

// Err returns the latched I/O error, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Stats returns counters for everything appended so far.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Close flushes and closes the file. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	var firstErr error
	if w.err == nil {
		if err := w.buf.Flush(); err != nil {
			firstErr = scribeerrors.Wrap(err, scribeerrors.ErrCodeLogIO, "flush event log")
		}
	}
	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = scribeerrors.Wrap(err, scribeerrors.ErrCodeLogIO, "close event log")
	}
	return firstErr
}
