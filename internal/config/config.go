// Package config loads CLI and server settings from a YAML or TOML file
// under the XDG config home, with environment overrides, and persists the
// logged-in session under the XDG state home.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/jamesprial/go-reddit-media/internal"
	pkgerrs "github.com/jamesprial/go-reddit-media/pkg/errors"
)

const (
	AppDirName      = "graw"
	ConfigFileName  = "config.yml"
	SessionFileName = "session.yml"

	DefaultPort    = 8080
	DefaultTimeout = "30s"

	maxResolveConcurrency = 64
)

// Environment variables that override the file.
const (
	EnvClientID     = "GRAW_CLIENT_ID"
	EnvClientSecret = "GRAW_CLIENT_SECRET"
	EnvRedirectURI  = "GRAW_REDIRECT_URI"
)

// Config holds the settings shared by every command.
type Config struct {
	ClientID     string `yaml:"client_id" toml:"client_id"`
	ClientSecret string `yaml:"client_secret,omitempty" toml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri,omitempty" toml:"redirect_uri"`
	UserAgent    string `yaml:"user_agent,omitempty" toml:"user_agent"`

	// BaseURL, PublicBaseURL and AuthURL override the Reddit hosts, mostly
	// for testing.
	BaseURL       string `yaml:"base_url,omitempty" toml:"base_url"`
	PublicBaseURL string `yaml:"public_base_url,omitempty" toml:"public_base_url"`
	AuthURL       string `yaml:"auth_url,omitempty" toml:"auth_url"`

	// Timeout is a Go duration string such as "30s".
	Timeout            string `yaml:"timeout,omitempty" toml:"timeout"`
	ResolveConcurrency int    `yaml:"resolve_concurrency,omitempty" toml:"resolve_concurrency"`

	Server ServerConfig `yaml:"server,omitempty" toml:"server"`
}

// ServerConfig holds settings for `graw serve`.
type ServerConfig struct {
	Port int `yaml:"port,omitempty" toml:"port"`
}

// Default returns the default configuration. ClientID is left empty.
func Default() *Config {
	return &Config{
		Timeout: DefaultTimeout,
		Server:  ServerConfig{Port: DefaultPort},
	}
}

// Dir returns the config directory, e.g. ~/.config/graw.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppDirName)
}

// Path returns the default config file path, e.g. ~/.config/graw/config.yml.
func Path() string {
	return filepath.Join(Dir(), ConfigFileName)
}

// SessionPath returns the session file path, e.g.
// ~/.local/state/graw/session.yml.
func SessionPath() string {
	return filepath.Join(xdg.StateHome, AppDirName, SessionFileName)
}

// Load reads the default config file, applies environment overrides and
// validates the result.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads path over the defaults. A missing file yields the defaults.
// Files ending in .toml are parsed as TOML, everything else as YAML.
// Environment overrides are applied before validation.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// ApplyEnv overrides credentials from the environment. Unset variables keep
// the file value; set but empty variables clear it.
func (c *Config) ApplyEnv() {
	for env, field := range map[string]*string{
		EnvClientID:     &c.ClientID,
		EnvClientSecret: &c.ClientSecret,
		EnvRedirectURI:  &c.RedirectURI,
	} {
		if v, ok := os.LookupEnv(env); ok {
			*field = v
		}
	}
}

// Validate checks required fields and bounds.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return &pkgerrs.ConfigError{Field: "client_id", Message: "client_id is required (set it in " + Path() + " or " + EnvClientID + ")"}
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if c.ResolveConcurrency < 0 || c.ResolveConcurrency > maxResolveConcurrency {
		return &pkgerrs.ConfigError{Field: "resolve_concurrency", Message: fmt.Sprintf("must be between 0 and %d", maxResolveConcurrency)}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &pkgerrs.ConfigError{Field: "server.port", Message: fmt.Sprintf("invalid port %d", c.Server.Port)}
	}
	for field, raw := range map[string]string{
		"base_url":        c.BaseURL,
		"public_base_url": c.PublicBaseURL,
		"auth_url":        c.AuthURL,
		"redirect_uri":    c.RedirectURI,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &pkgerrs.ConfigError{Field: field, Message: fmt.Sprintf("%q is not an absolute URL", raw)}
		}
	}
	return nil
}

// TimeoutDuration parses Timeout. Empty means DefaultTimeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	raw := c.Timeout
	if raw == "" {
		raw = DefaultTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &pkgerrs.ConfigError{Field: "timeout", Message: err.Error()}
	}
	if d <= 0 {
		return 0, &pkgerrs.ConfigError{Field: "timeout", Message: "timeout must be positive"}
	}
	return d, nil
}

// LoadSession reads saved credentials. ok is false when no session file
// exists.
func LoadSession(path string) (creds internal.Credentials, ok bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return internal.Credentials{}, false, nil
	}
	if err != nil {
		return internal.Credentials{}, false, fmt.Errorf("reading session: %w", err)
	}
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return internal.Credentials{}, false, fmt.Errorf("parsing session %s: %w", path, err)
	}
	if creds.RefreshToken == "" {
		return internal.Credentials{}, false, nil
	}
	return creds, true, nil
}

// SaveSession writes creds to path, readable only by the owner.
func SaveSession(path string, creds internal.Credentials) error {
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// RemoveSession deletes the session file. A missing file is not an error.
func RemoveSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
