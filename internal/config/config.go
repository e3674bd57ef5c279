// Package config loads the ProductTrack client configuration.
//
// Values come from three layers, later ones winning:
//
//  1. built-in defaults
//  2. the YAML file at <home>/config.yaml
//  3. PRODUCTTRACK_* environment variables, after an optional .env file is loaded
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	pterrors "github.com/producttrack/producttrack/internal/errors"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PRODUCTTRACK"

	// DirName is the default home directory under the user's home.
	DirName = ".producttrack"

	// FileName is the configuration file inside the home directory.
	FileName = "config.yaml"

	// LogFileName is the default log file inside the home directory.
	LogFileName = "producttrack.log"

	DefaultAPIURL  = "http://localhost:8080/api"
	DefaultTimeout = 30 * time.Second
)

// Config is the client configuration.
type Config struct {
	API      APIConfig      `yaml:"api" json:"api"`
	Session  SessionConfig  `yaml:"session" json:"session"`
	Defaults DefaultsConfig `yaml:"defaults" json:"defaults"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

type APIConfig struct {
	URL     string        `yaml:"url" json:"url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// SessionConfig controls token handling. With an empty TokenSecret tokens
// are decoded without signature verification, as the backend is the
// authority on them.
//
// StatePassphrase, when set, encrypts the stored token. It is read from
// the environment only and never written to the file.
type SessionConfig struct {
	TokenSecret     string `yaml:"token_secret,omitempty" json:"token_secret,omitempty"`
	StatePassphrase string `yaml:"-" json:"-"`
}

type DefaultsConfig struct {
	Format  string `yaml:"format" json:"format"` // "text", "json", "yaml"
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" json:"format"` // "text", "json"
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// env lists the supported overrides. Pointer fields stay nil when the
// variable is unset, so only variables actually present override the file.
// Tags carry the full name so envconfig never falls back to the bare one.
type env struct {
	APIURL      *string        `envconfig:"PRODUCTTRACK_API_URL"`
	Timeout     *time.Duration `envconfig:"PRODUCTTRACK_TIMEOUT"`
	TokenSecret *string        `envconfig:"PRODUCTTRACK_TOKEN_SECRET"`
	Passphrase  *string        `envconfig:"PRODUCTTRACK_STATE_PASSPHRASE"`
	Format      *string        `envconfig:"PRODUCTTRACK_FORMAT"`
	NoColor     *bool          `envconfig:"PRODUCTTRACK_NO_COLOR"`
	LogLevel    *string        `envconfig:"PRODUCTTRACK_LOG_LEVEL"`
	LogFormat   *string        `envconfig:"PRODUCTTRACK_LOG_FORMAT"`
	LogFile     *string        `envconfig:"PRODUCTTRACK_LOG_FILE"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:     DefaultAPIURL,
			Timeout: DefaultTimeout,
		},
		Defaults: DefaultsConfig{
			Format: "text",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// DefaultHome returns ~/.producttrack.
func DefaultHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", pterrors.Wrap(pterrors.ErrCodeDirectoryFailed, "failed to get home directory", err)
	}
	return filepath.Join(home, DirName), nil
}

// ResolveHome picks the home directory: the flag value, then
// PRODUCTTRACK_HOME, then the default.
func ResolveHome(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(EnvPrefix + "_HOME"); v != "" {
		return v, nil
	}
	return DefaultHome()
}

// Path returns the configuration file path for home.
func Path(home string) string {
	return filepath.Join(home, FileName)
}

// LoadDotEnv loads path into the process environment. A missing file is not
// an error. Variables already set are kept.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return pterrors.Wrap(pterrors.ErrCodeConfigEnv, fmt.Sprintf("failed to load %s", path), err)
	}
	return nil
}

// LoadFile reads the YAML file at path over the defaults. A missing file
// yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, pterrors.Wrap(pterrors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read config: %s", path), err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, pterrors.NewFileUnmarshalError(path, "YAML", err)
	}
	return cfg, nil
}

// Load builds the effective configuration for home: defaults, then the
// config file, then the environment. The result is validated.
func Load(home string) (*Config, error) {
	cfg, err := LoadFile(Path(home))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(home, LogFileName)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays PRODUCTTRACK_* variables onto c.
func (c *Config) ApplyEnv() error {
	var e env
	if err := envconfig.Process("", &e); err != nil {
		return pterrors.Wrap(pterrors.ErrCodeConfigEnv, "invalid environment override", err).
			WithSuggestion("Check the PRODUCTTRACK_* variables in your environment or .env file")
	}

	if e.APIURL != nil {
		c.API.URL = *e.APIURL
	}
	if e.Timeout != nil {
		c.API.Timeout = *e.Timeout
	}
	if e.TokenSecret != nil {
		c.Session.TokenSecret = *e.TokenSecret
	}
	if e.Passphrase != nil {
		c.Session.StatePassphrase = *e.Passphrase
	}
	if e.Format != nil {
		c.Defaults.Format = *e.Format
	}
	if e.NoColor != nil {
		c.Defaults.NoColor = *e.NoColor
	}
	if e.LogLevel != nil {
		c.Logging.Level = *e.LogLevel
	}
	if e.LogFormat != nil {
		c.Logging.Format = *e.LogFormat
	}
	if e.LogFile != nil {
		c.Logging.File = *e.LogFile
	}
	return nil
}

// Validate checks the values a command cannot run without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return pterrors.New(pterrors.ErrCodeConfigInvalid, fmt.Sprintf("api.url must be an absolute http(s) URL, got %q", c.API.URL)).
			WithSuggestion("Set it with 'producttrack config set api.url https://host/api'")
	}
	if c.API.Timeout <= 0 {
		return pterrors.New(pterrors.ErrCodeConfigInvalid, "api.timeout must be positive")
	}
	if !oneOf(c.Defaults.Format, "text", "json", "yaml") {
		return pterrors.New(pterrors.ErrCodeConfigInvalid, fmt.Sprintf("unsupported output format %q", c.Defaults.Format)).
			WithSuggestion("Use one of: text, json, yaml")
	}
	if !oneOf(strings.ToLower(c.Logging.Level), "debug", "info", "warn", "warning", "error") {
		return pterrors.New(pterrors.ErrCodeConfigInvalid, fmt.Sprintf("unsupported log level %q", c.Logging.Level))
	}
	if !oneOf(strings.ToLower(c.Logging.Format), "text", "json") {
		return pterrors.New(pterrors.ErrCodeConfigInvalid, fmt.Sprintf("unsupported log format %q", c.Logging.Format))
	}
	return nil
}

// Save writes c to path, creating the directory when needed.
func Save(c *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return pterrors.Wrap(pterrors.ErrCodeDirectoryFailed, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return pterrors.Wrap(pterrors.ErrCodeFileMarshal, "failed to marshal config", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return pterrors.Wrap(pterrors.ErrCodeFileWriteFailed, "failed to write config", err)
	}
	return nil
}

// Keys lists the keys accepted by Get and Set.
var Keys = []string{
	"api.url",
	"api.timeout",
	"session.token_secret",
	"defaults.format",
	"defaults.no_color",
	"logging.level",
	"logging.format",
	"logging.file",
}

// Get returns a value using dot notation.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api.url":
		return c.API.URL, nil
	case "api.timeout":
		return c.API.Timeout.String(), nil
	case "session.token_secret":
		return c.Session.TokenSecret, nil
	case "defaults.format":
		return c.Defaults.Format, nil
	case "defaults.no_color":
		return strconv.FormatBool(c.Defaults.NoColor), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "logging.file":
		return c.Logging.File, nil
	default:
		return "", unknownKey(key)
	}
}

// Set assigns a value using dot notation. The result is validated; on
// failure c is left unchanged.
func (c *Config) Set(key, value string) error {
	next := *c

	switch key {
	case "api.url":
		next.API.URL = value
	case "api.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return pterrors.Wrap(pterrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid duration %q", value), err)
		}
		next.API.Timeout = d
	case "session.token_secret":
		next.Session.TokenSecret = value
	case "defaults.format":
		next.Defaults.Format = value
	case "defaults.no_color":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return pterrors.Wrap(pterrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid boolean %q", value), err)
		}
		next.Defaults.NoColor = b
	case "logging.level":
		next.Logging.Level = value
	case "logging.format":
		next.Logging.Format = value
	case "logging.file":
		next.Logging.File = value
	default:
		return unknownKey(key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Session.TokenSecret != "" {
		out.Session.TokenSecret = "********"
	}
	return &out
}

func unknownKey(key string) error {
	return pterrors.New(pterrors.ErrCodeConfigInvalid, fmt.Sprintf("unknown configuration key: %s", key)).
		WithSuggestion("Valid keys: " + strings.Join(Keys, ", "))
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
