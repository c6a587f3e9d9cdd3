package config

import (
	"os"

	"gopkg.in/yaml.v3"

	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
)

// loadAndMerge loads a YAML file and merges it into the config.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return scribeerrors.Wrap(err, scribeerrors.ErrCodeConfigParse, "parsing YAML").WithContext("path", path)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return scribeerrors.Wrap(err, scribeerrors.ErrCodeConfigParse, "parsing YAML").WithContext("path", path)
	}

	mergeConfigs(cfg, &override, raw)
	return nil
}

// mergeConfigs merges override into base. Strings and numbers override when
// non-zero; booleans only when the key is present in raw.
func mergeConfigs(base, override *Config, raw map[string]any) {
	if override == nil {
		return
	}

	if override.Replay.Mode != "" {
		base.Replay.Mode = override.Replay.Mode
	}
	if override.Replay.LogPath != "" {
		base.Replay.LogPath = override.Replay.LogPath
	}
	if boolFieldSet(raw, "replay", "sync") {
		base.Replay.Sync = override.Replay.Sync
	}
	if boolFieldSet(raw, "replay", "append") {
		base.Replay.Append = override.Replay.Append
	}
	if override.Replay.CachePolicy != "" {
		base.Replay.CachePolicy = override.Replay.CachePolicy
	}

	if override.Logging.Dir != "" {
		base.Logging.Dir = override.Logging.Dir
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if boolFieldSet(raw, "metrics", "addr") {
		base.Metrics.Addr = override.Metrics.Addr
	}

	if boolFieldSet(raw, "storage", "enabled") {
		base.Storage.Enabled = override.Storage.Enabled
	}
	if override.Storage.DBPath != "" {
		base.Storage.DBPath = override.Storage.DBPath
	}

	if override.Editor.Width != 0 {
		base.Editor.Width = override.Editor.Width
	}
	if override.Editor.Height != 0 {
		base.Editor.Height = override.Editor.Height
	}
	if boolFieldSet(raw, "editor", "double_click_ms") {
		base.Editor.DoubleClickMS = override.Editor.DoubleClickMS
	}
	if override.Editor.TabWidth != 0 {
		base.Editor.TabWidth = override.Editor.TabWidth
	}
	if boolFieldSet(raw, "editor", "tick_ms") {
		base.Editor.TickMS = override.Editor.TickMS
	}
}

func boolFieldSet(raw map[string]any, path ...string) bool {
	if len(path) == 0 || raw == nil {
		return false
	}
	current := any(raw)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return false
		}
		val, ok := m[key]
		if !ok {
			return false
		}
		current = val
	}
	return true
}
