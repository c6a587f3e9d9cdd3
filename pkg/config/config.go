package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
	"github.com/odvcencio/scribe/pkg/paths"
)

// Environment variable overrides, applied after every file.
const (
	EnvReplayMode  = "SCRIBE_REPLAY_MODE"
	EnvReplayLog   = "SCRIBE_REPLAY_LOG"
	EnvLogDir      = "SCRIBE_LOG_DIR"
	EnvMetricsAddr = "SCRIBE_METRICS_ADDR"
)

// Config represents the complete scribe configuration
type Config struct {
	Replay  ReplayConfig  `yaml:"replay"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Storage StorageConfig `yaml:"storage"`
	Editor  EditorConfig  `yaml:"editor"`
}

// ReplayConfig controls recording and playback.
type ReplayConfig struct {
	// Mode is off, record or play.
	Mode    string `yaml:"mode"`
	LogPath string `yaml:"log_path"`
	// Sync fsyncs the log after every event.
	Sync   bool `yaml:"sync"`
	Append bool `yaml:"append"`
	// CachePolicy is sequential or latest.
	CachePolicy string `yaml:"cache_policy"`
}

// LoggingConfig controls the JSONL session logs.
type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// MetricsConfig controls the prometheus endpoint. An empty address disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig controls the session catalog.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// EditorConfig controls the editor window.
type EditorConfig struct {
	Width         int `yaml:"width"`
	Height        int `yaml:"height"`
	DoubleClickMS int `yaml:"double_click_ms"`
	TabWidth      int `yaml:"tab_width"`
	// TickMS is how often Update runs without input. Zero disables ticking.
	TickMS int `yaml:"tick_ms"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Replay: ReplayConfig{
			Mode:        "off",
			CachePolicy: "sequential",
		},
		Logging: LoggingConfig{
			Dir:   paths.ScribeLogsBaseDir(),
			Level: "info",
		},
		Storage: StorageConfig{
			Enabled: true,
			DBPath:  paths.CatalogPath(),
		},
		Editor: EditorConfig{
			Width:         80,
			Height:        24,
			DoubleClickMS: 400,
			TabWidth:      4,
			TickMS:        500,
		},
	}
}

// Load loads configuration from default locations with proper precedence:
// defaults, ~/.scribe/config.yaml, ./.scribe/config.yaml, environment.
func Load() (*Config, error) {
	return load("")
}

// LoadFromPath is Load with an explicit file layered after the project file.
// Unlike the default locations, the explicit file must exist.
func LoadFromPath(path string) (*Config, error) {
	return load(path)
}

func load(explicit string) (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	if home != "" {
		userConfigPath := filepath.Join(home, ".scribe", "config.yaml")
		if err := loadAndMerge(cfg, userConfigPath); err != nil && !os.IsNotExist(err) {
			return nil, wrapLoad(err, userConfigPath)
		}
	}

	projectConfigPath := filepath.Join(".", ".scribe", "config.yaml")
	if err := loadAndMerge(cfg, projectConfigPath); err != nil && !os.IsNotExist(err) {
		return nil, wrapLoad(err, projectConfigPath)
	}

	if explicit != "" {
		if err := loadAndMerge(cfg, explicit); err != nil {
			return nil, wrapLoad(err, explicit)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func wrapLoad(err error, path string) error {
	if scribeerrors.IsCode(err, scribeerrors.ErrCodeConfigParse) {
		return err
	}
	return scribeerrors.Wrap(err, scribeerrors.ErrCodeConfigLoad, "loading config").WithContext("path", path)
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvReplayMode)); v != "" {
		cfg.Replay.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvReplayLog)); v != "" {
		cfg.Replay.LogPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogDir)); v != "" {
		cfg.Logging.Dir = paths.ExpandHome(v)
	}
	if v, ok := os.LookupEnv(EnvMetricsAddr); ok {
		cfg.Metrics.Addr = strings.TrimSpace(v)
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Replay.Mode)) {
	case "", "off", "none", "record", "play", "replay":
	default:
		return invalid("replay.mode", c.Replay.Mode, "must be off, record or play")
	}
	switch strings.ToLower(strings.TrimSpace(c.Replay.CachePolicy)) {
	case "", "sequential", "latest":
	default:
		return invalid("replay.cache_policy", c.Replay.CachePolicy, "must be sequential or latest")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return invalid("logging.level", c.Logging.Level, "must be debug, info, warn or error")
	}
	if addr := strings.TrimSpace(c.Metrics.Addr); addr != "" {
		if _, port, err := net.SplitHostPort(addr); err != nil || port == "" {
			return invalid("metrics.addr", addr, "must be host:port")
		}
	}
	if c.Storage.Enabled && strings.TrimSpace(c.Storage.DBPath) == "" {
		return invalid("storage.db_path", "", "required when storage is enabled")
	}
	if c.Editor.Width <= 0 || c.Editor.Height <= 1 {
		return invalid("editor.width/height", strconv.Itoa(c.Editor.Width)+"x"+strconv.Itoa(c.Editor.Height), "window needs at least one text row")
	}
	if c.Editor.DoubleClickMS < 0 {
		return invalid("editor.double_click_ms", strconv.Itoa(c.Editor.DoubleClickMS), "must not be negative")
	}
	if c.Editor.TabWidth < 1 || c.Editor.TabWidth > 16 {
		return invalid("editor.tab_width", strconv.Itoa(c.Editor.TabWidth), "must be between 1 and 16")
	}
	if c.Editor.TickMS < 0 {
		return invalid("editor.tick_ms", strconv.Itoa(c.Editor.TickMS), "must not be negative")
	}
	return nil
}

func invalid(field, value, reason string) error {
	return scribeerrors.Newf(scribeerrors.ErrCodeConfigInvalid, "invalid %s %q: %s", field, value, reason).
		WithContext("field", field)
}
