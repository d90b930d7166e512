// Package config loads the TOML configuration file and applies
// defaults and environment overrides.
//
// Configuration is resolved in order of precedence:
//   - environment variables (MOYA_*)
//   - ~/.moya/config.toml
//   - built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/montycloud/moya"
)

// Config is the complete application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Session SessionConfig `toml:"session"`
	UI      UIConfig      `toml:"ui"`
}

// ServerConfig points at the assistant backend.
type ServerConfig struct {
	// BaseURL is the backend base URL, without a trailing path.
	BaseURL string `toml:"base_url"`
	// FrameTimeoutSecs bounds the wait for the next stream frame.
	FrameTimeoutSecs int `toml:"frame_timeout_secs"`
}

// SessionConfig controls conversation identity and persistence.
type SessionConfig struct {
	// ThreadID pins the conversation thread. Empty means a fresh
	// thread is generated on startup.
	ThreadID string `toml:"thread_id"`
	// ExportPath, when set, is where the transcript is saved on exit.
	ExportPath string `toml:"export_path"`
}

// UIConfig holds the ANSI color indices for the TUI theme.
type UIConfig struct {
	UserColor    int `toml:"user_color"`
	ErrorColor   int `toml:"error_color"`
	SuccessColor int `toml:"success_color"`
	MutedColor   int `toml:"muted_color"`
	AccentColor  int `toml:"accent_color"`
}

// Theme converts the UI section to a renderer theme.
func (u UIConfig) Theme() moya.Theme {
	return moya.Theme{
		UserMsg: u.UserColor,
		Error:   u.ErrorColor,
		Success: u.SuccessColor,
		Muted:   u.MutedColor,
		Accent:  u.AccentColor,
	}
}

// FrameTimeout returns the frame timeout as a duration.
func (s ServerConfig) FrameTimeout() time.Duration {
	return time.Duration(s.FrameTimeoutSecs) * time.Second
}

// Default returns a Config with built-in defaults.
func Default() Config {
	theme := moya.DefaultTheme()
	return Config{
		Server: ServerConfig{
			BaseURL:          "http://localhost:8000",
			FrameTimeoutSecs: 30,
		},
		UI: UIConfig{
			UserColor:    theme.UserMsg,
			ErrorColor:   theme.Error,
			SuccessColor: theme.Success,
			MutedColor:   theme.Muted,
			AccentColor:  theme.Accent,
		},
	}
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: determine home directory: %w", err)
	}
	return filepath.Join(home, ".moya"), nil
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config from the default location. A missing file is
// not an error; defaults are returned. Environment overrides are
// applied last.
func Load() (Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFrom reads the config from an explicit path. Unlike Load, a
// missing file is an error.
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the config to path as TOML. The file is created with
// owner-only permissions.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("config: create file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# moya configuration file")
	fmt.Fprintln(file, "")
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("config: server.base_url must not be empty")
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: server.base_url %q is not a valid URL", c.Server.BaseURL)
	}
	if c.Server.FrameTimeoutSecs <= 0 {
		return fmt.Errorf("config: server.frame_timeout_secs must be positive, got %d", c.Server.FrameTimeoutSecs)
	}
	return nil
}

// applyEnv applies environment variable overrides.
//
// Supported variables:
//   - MOYA_BASE_URL: overrides server.base_url
//   - MOYA_THREAD_ID: overrides session.thread_id
func (c *Config) applyEnv() {
	if v := os.Getenv("MOYA_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("MOYA_THREAD_ID"); v != "" {
		c.Session.ThreadID = v
	}
}

// fillDefaults backfills zero values left by a partial config file.
func (c *Config) fillDefaults() {
	defaults := Default()
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.Server.FrameTimeoutSecs == 0 {
		c.Server.FrameTimeoutSecs = defaults.Server.FrameTimeoutSecs
	}
}
