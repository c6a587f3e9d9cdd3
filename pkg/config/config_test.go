package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/scribe/pkg/config"
	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
)

// isolate points HOME and the working directory at fresh temp dirs and
// clears the override variables.
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	home = t.TempDir()
	project = t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{config.EnvReplayMode, config.EnvReplayLog, config.EnvLogDir} {
		t.Setenv(key, "")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(project); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home, project
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	if cfg.Replay.Mode != "off" || cfg.Replay.CachePolicy != "sequential" {
		t.Fatalf("unexpected replay defaults: %+v", cfg.Replay)
	}
	if cfg.Editor.Width != 80 || cfg.Editor.Height != 24 || cfg.Editor.DoubleClickMS != 400 {
		t.Fatalf("unexpected editor defaults: %+v", cfg.Editor)
	}
	if !cfg.Storage.Enabled || cfg.Storage.DBPath == "" {
		t.Fatalf("storage should be enabled by default: %+v", cfg.Storage)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadHierarchy(t *testing.T) {
	home, project := isolate(t)

	writeConfig(t, filepath.Join(home, ".scribe"), `
replay:
  cache_policy: latest
  sync: true
editor:
  width: 120
  height: 40
`)
	writeConfig(t, filepath.Join(project, ".scribe"), `
replay:
  mode: record
editor:
  width: 100
`)
	t.Setenv(config.EnvReplayLog, "/tmp/env.evlog")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load returned error: %v", err)
	}

	if cfg.Replay.Mode != "record" {
		t.Fatalf("expected project mode, got %s", cfg.Replay.Mode)
	}
	if cfg.Replay.CachePolicy != "latest" || !cfg.Replay.Sync {
		t.Fatalf("expected user replay settings, got %+v", cfg.Replay)
	}
	if cfg.Editor.Width != 100 || cfg.Editor.Height != 40 {
		t.Fatalf("expected width from project and height from user, got %dx%d", cfg.Editor.Width, cfg.Editor.Height)
	}
	if cfg.Replay.LogPath != "/tmp/env.evlog" {
		t.Fatalf("expected env log path, got %s", cfg.Replay.LogPath)
	}
}

func TestLoadFromPathLayersLast(t *testing.T) {
	_, project := isolate(t)
	writeConfig(t, filepath.Join(project, ".scribe"), `
replay:
  mode: record
logging:
  level: debug
`)
	explicit := writeConfig(t, filepath.Join(project, "custom"), `
replay:
  mode: play
  log_path: session.evlog
storage:
  enabled: false
editor:
  tick_ms: 0
`)
	t.Setenv(config.EnvReplayMode, "off")

	cfg, err := config.LoadFromPath(explicit)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Replay.Mode != "off" {
		t.Fatalf("env should win over explicit file, got %s", cfg.Replay.Mode)
	}
	if cfg.Replay.LogPath != "session.evlog" {
		t.Fatalf("expected explicit log path, got %s", cfg.Replay.LogPath)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("project level should survive, got %s", cfg.Logging.Level)
	}
	if cfg.Storage.Enabled {
		t.Fatal("explicit false should disable storage")
	}
	if cfg.Editor.TickMS != 0 {
		t.Fatalf("explicit zero tick should apply, got %d", cfg.Editor.TickMS)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	isolate(t)
	_, err := config.LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if !scribeerrors.IsCode(err, scribeerrors.ErrCodeConfigLoad) {
		t.Fatalf("expected CONFIG_LOAD, got %v", err)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, project := isolate(t)
	writeConfig(t, filepath.Join(project, ".scribe"), "replay: [unclosed")

	_, err := config.Load()
	if !scribeerrors.IsCode(err, scribeerrors.ErrCodeConfigParse) {
		t.Fatalf("expected CONFIG_PARSE, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvLogDir, "/var/log/scribe")
	t.Setenv(config.EnvMetricsAddr, "127.0.0.1:9100")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Dir != "/var/log/scribe" {
		t.Fatalf("log dir = %s", cfg.Logging.Dir)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9100" {
		t.Fatalf("metrics addr = %s", cfg.Metrics.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{"defaults", func(*config.Config) {}, true},
		{"replay alias", func(c *config.Config) { c.Replay.Mode = "replay" }, true},
		{"bad mode", func(c *config.Config) { c.Replay.Mode = "rewind" }, false},
		{"bad policy", func(c *config.Config) { c.Replay.CachePolicy = "random" }, false},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }, false},
		{"metrics addr", func(c *config.Config) { c.Metrics.Addr = ":9100" }, true},
		{"bad metrics addr", func(c *config.Config) { c.Metrics.Addr = "9100" }, false},
		{"storage without path", func(c *config.Config) { c.Storage.DBPath = "" }, false},
		{"storage disabled without path", func(c *config.Config) { c.Storage.Enabled = false; c.Storage.DBPath = "" }, true},
		{"one row", func(c *config.Config) { c.Editor.Height = 1 }, false},
		{"zero width", func(c *config.Config) { c.Editor.Width = 0 }, false},
		{"negative double click", func(c *config.Config) { c.Editor.DoubleClickMS = -1 }, false},
		{"tab too wide", func(c *config.Config) { c.Editor.TabWidth = 17 }, false},
		{"negative tick", func(c *config.Config) { c.Editor.TickMS = -5 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("expected error")
				}
				if !scribeerrors.IsCode(err, scribeerrors.ErrCodeConfigInvalid) {
					t.Fatalf("expected CONFIG_INVALID, got %v", err)
				}
			}
		})
	}
}
