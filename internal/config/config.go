// Package config loads the optional ~/.bigless/config.toml file,
// following the same Load/Save/EnsureDir shape as the teacher's own
// internal/config package.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the ~/.bigless/config.toml file. It is read-only
// input to a session: nothing in the pager writes session state back
// (spec.md §6 "Persisted state: None"), so Save exists for
// completeness and tests but has no call site in cmd/bigless.
type Config struct {
	Theme            string `toml:"theme,omitempty"`
	PageOverscan     int    `toml:"page_overscan,omitempty"`
	SmartCaseDefault bool   `toml:"smart_case_default"`
	SoftLineCapBytes int    `toml:"soft_line_cap_bytes,omitempty"`
}

// Defaults returns the configuration used when no config.toml exists.
func Defaults() Config {
	return Config{
		Theme:            "default",
		PageOverscan:     0,
		SmartCaseDefault: true,
		SoftLineCapBytes: 1 << 20, // 1 MiB, spec.md §4.1 soft per-line cap
	}
}

// homeDirOverride is set by the --config-dir flag or BIGLESS_HOME env var.
var homeDirOverride string

// SetHomeDir allows the CLI to pass in the --config-dir / BIGLESS_HOME value.
func SetHomeDir(dir string) {
	homeDirOverride = dir
}

// HomeDir returns the config directory path.
// Precedence: --config-dir flag / SetHomeDir > BIGLESS_HOME env > ~/.bigless
func HomeDir() string {
	if homeDirOverride != "" {
		return homeDirOverride
	}
	if v := os.Getenv("BIGLESS_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".bigless")
	}
	return filepath.Join(home, ".bigless")
}

// Path returns the full path to config.toml.
func Path() string {
	return filepath.Join(HomeDir(), "config.toml")
}

// LogPath returns the full path to bigless.log.
func LogPath() string {
	return filepath.Join(HomeDir(), "bigless.log")
}

// EnsureDir creates the bigless home directory if it does not exist.
func EnsureDir() error {
	return os.MkdirAll(HomeDir(), 0o755)
}

// Load reads config.toml, overlaying any set fields onto Defaults().
// A missing file is not an error; it yields the defaults unchanged.
func Load() (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config.toml: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to config.toml, creating the home directory first.
func Save(cfg Config) error {
	if err := EnsureDir(); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(Path(), data, 0o644)
}
