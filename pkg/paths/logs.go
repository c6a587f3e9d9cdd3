package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvScribeLogDir  = "SCRIBE_LOG_DIR"
	EnvScribeDataDir = "SCRIBE_DATA_DIR"
)

// ScribeLogsBaseDir is where structured JSONL logs are written.
func ScribeLogsBaseDir() string {
	if dir := strings.TrimSpace(os.Getenv(EnvScribeLogDir)); dir != "" {
		return filepath.Clean(ExpandHome(dir))
	}
	return filepath.Join(".scribe", "logs")
}

// ScribeDataDir holds recordings and the session catalog.
func ScribeDataDir() string {
	if dir := strings.TrimSpace(os.Getenv(EnvScribeDataDir)); dir != "" {
		return filepath.Clean(ExpandHome(dir))
	}
	return ".scribe"
}

// RecordingsDir is the default location for event logs.
func RecordingsDir() string {
	return filepath.Join(ScribeDataDir(), "recordings")
}

// RecordingPath returns the default event log path for a session id.
func RecordingPath(sessionID string) string {
	return filepath.Join(RecordingsDir(), strings.TrimSpace(sessionID)+".evlog")
}

// CatalogPath is the default SQLite catalog location.
func CatalogPath() string {
	return filepath.Join(ScribeDataDir(), "sessions.db")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil || strings.TrimSpace(home) == "" {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/"))
	}
	return path
}

// ScribeLogsBaseDirForWorkdir anchors a relative log dir at workdir.
func ScribeLogsBaseDirForWorkdir(workdir string) string {
	base := ScribeLogsBaseDir()
	if filepath.IsAbs(base) || strings.TrimSpace(workdir) == "" {
		return base
	}
	return filepath.Join(workdir, base)
}
