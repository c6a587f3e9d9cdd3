package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// TestNewLogger tests logger construction with temp directories
func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		baseDir   string
		sessionID string
	}{
		{
			name:      "valid directory and session ID",
			baseDir:   t.TempDir(),
			sessionID: "01HZYREC0000000000000000",
		},
		{
			name:      "creates directories if not exist",
			baseDir:   filepath.Join(t.TempDir(), "nested", "path"),
			sessionID: "session-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.baseDir, tt.sessionID)
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			defer logger.Close()

			if logger.SessionID() != tt.sessionID {
				t.Errorf("SessionID() = %v, want %v", logger.SessionID(), tt.sessionID)
			}
			if logger.minLevel != LevelInfo {
				t.Errorf("minLevel = %v, want %v", logger.minLevel, LevelInfo)
			}

			sessionPath := filepath.Join(tt.baseDir, "sessions", tt.sessionID+".jsonl")
			if _, err := os.Stat(sessionPath); err != nil {
				t.Errorf("session file not created: %v", err)
			}
			if _, err := os.Stat(filepath.Join(tt.baseDir, "errors.jsonl")); err != nil {
				t.Errorf("error file not created: %v", err)
			}
		})
	}
}

func TestNewLoggerInvalidDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := NewLogger(filepath.Join(file, "logs"), "s"); err == nil {
		t.Fatal("expected error when base dir is under a regular file")
	}
}

func TestLogEvent(t *testing.T) {
	baseDir := t.TempDir()
	logger, err := NewLogger(baseDir, "rec-1")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	before := time.Now()
	if err := logger.Info(CategoryReplay, "replay_started", "replaying", map[string]any{"events": 3}); err != nil {
		t.Fatalf("Info() failed: %v", err)
	}

	events, err := ReadRecentEvents(filepath.Join(baseDir, "sessions", "rec-1.jsonl"), 10)
	if err != nil {
		t.Fatalf("ReadRecentEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.Category != CategoryReplay || got.EventType != "replay_started" {
		t.Errorf("unexpected event: %+v", got)
	}
	if got.SessionID != "rec-1" {
		t.Errorf("SessionID = %q, want rec-1", got.SessionID)
	}
	if got.Timestamp.Before(before.Add(-time.Second)) {
		t.Errorf("timestamp not set: %v", got.Timestamp)
	}
	if got.Details["events"] != float64(3) {
		t.Errorf("details = %v", got.Details)
	}
}

func TestLogErrorEvent(t *testing.T) {
	baseDir := t.TempDir()
	logger, err := NewLogger(baseDir, "rec-2")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	if err := logger.Error(CategoryRecord, "append_failed", "disk full", nil); err != nil {
		t.Fatalf("Error() failed: %v", err)
	}
	if err := logger.Info(CategoryRecord, "append", "ok", nil); err != nil {
		t.Fatalf("Info() failed: %v", err)
	}

	errorEvents, err := ReadRecentEvents(filepath.Join(baseDir, "errors.jsonl"), 10)
	if err != nil {
		t.Fatalf("ReadRecentEvents (errors) failed: %v", err)
	}
	if len(errorEvents) != 1 || errorEvents[0].Level != LevelError {
		t.Fatalf("expected exactly the error event in errors.jsonl, got %+v", errorEvents)
	}
}

func TestSetMinLevel(t *testing.T) {
	baseDir := t.TempDir()
	logger, err := NewLogger(baseDir, "lvl")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	logger.SetMinLevel(LevelWarn)
	_ = logger.Debug(CategoryUI, "d", "", nil)
	_ = logger.Info(CategoryUI, "i", "", nil)
	_ = logger.Warn(CategoryUI, "w", "", nil)
	_ = logger.Error(CategoryUI, "e", "", nil)

	events, err := ReadRecentEvents(filepath.Join(baseDir, "sessions", "lvl.jsonl"), 10)
	if err != nil {
		t.Fatalf("ReadRecentEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events at warn+, got %d", len(events))
	}
	if events[0].EventType != "w" || events[1].EventType != "e" {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug": LevelDebug,
		"warn":  LevelWarn,
		"error": LevelError,
		"":      LevelInfo,
		"loud":  LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	logger := Discard()
	if err := logger.Info(CategoryReplay, "x", "y", nil); err != nil {
		t.Errorf("nil logger Info returned %v", err)
	}
	logger.SetMinLevel(LevelDebug)
	if logger.SessionID() != "" {
		t.Error("nil logger should have empty session id")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("nil logger Close returned %v", err)
	}
}

func TestClose(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "close")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	// Writes after close are dropped rather than failing.
	if err := logger.Info(CategoryUI, "after", "", nil); err != nil {
		t.Errorf("Log after close returned %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() returned %v", err)
	}
}

func TestReadRecentEventsReturnsTail(t *testing.T) {
	baseDir := t.TempDir()
	logger, err := NewLogger(baseDir, "tail")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	for _, name := range []string{"a", "b", "c", "d"} {
		_ = logger.Info(CategoryReplay, name, "", nil)
	}

	events, err := ReadRecentEvents(filepath.Join(baseDir, "sessions", "tail.jsonl"), 2)
	if err != nil {
		t.Fatalf("ReadRecentEvents failed: %v", err)
	}
	if len(events) != 2 || events[0].EventType != "c" || events[1].EventType != "d" {
		t.Fatalf("unexpected tail: %+v", events)
	}
}

func TestReadRecentEventsNonexistent(t *testing.T) {
	if _, err := ReadRecentEvents(filepath.Join(t.TempDir(), "missing.jsonl"), 1); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConcurrentWritesProduceValidJSONL(t *testing.T) {
	baseDir := t.TempDir()
	logger, err := NewLogger(baseDir, "conc")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = logger.Info(CategoryRecord, "append", "", map[string]any{"writer": i, "n": j})
			}
		}(i)
	}
	wg.Wait()

	f, err := os.Open(filepath.Join(baseDir, "sessions", "conc.jsonl"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		lines++
	}
	if lines != 200 {
		t.Fatalf("expected 200 lines, got %d", lines)
	}
}
