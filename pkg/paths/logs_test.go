package paths

import (
	"path/filepath"
	"testing"
)

func TestScribeLogsBaseDirDefaultsToRelativePath(t *testing.T) {
	t.Setenv(EnvScribeLogDir, "")
	if got := ScribeLogsBaseDir(); got != filepath.Join(".scribe", "logs") {
		t.Fatalf("unexpected base logs dir: %q", got)
	}
}

func TestScribeLogsBaseDirExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvScribeLogDir, "~/scribe/logs")
	want := filepath.Join(home, "scribe", "logs")
	if got := ScribeLogsBaseDir(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestExpandHomeSupportsBareHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if got := ExpandHome("~"); got != home {
		t.Fatalf("expected %q, got %q", home, got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Fatalf("absolute path changed: %q", got)
	}
}

func TestScribeLogsBaseDirForWorkdirAnchorsRelative(t *testing.T) {
	t.Setenv(EnvScribeLogDir, "relative/logs")
	workdir := t.TempDir()
	want := filepath.Join(workdir, "relative", "logs")
	if got := ScribeLogsBaseDirForWorkdir(workdir); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRecordingPathUsesDataDir(t *testing.T) {
	data := t.TempDir()
	t.Setenv(EnvScribeDataDir, data)
	want := filepath.Join(data, "recordings", "01ABC.evlog")
	if got := RecordingPath(" 01ABC "); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := CatalogPath(); got != filepath.Join(data, "sessions.db") {
		t.Fatalf("unexpected catalog path %q", got)
	}
}
