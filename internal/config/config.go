package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// LocalURL is the development backend used when running on localhost
	LocalURL = "http://localhost:3001"
	// DefaultRemoteURL is the hosted backend used when nothing else applies
	DefaultRemoteURL = "https://issue-tracker-api.onrender.com"

	defaultListen   = ":3001"
	defaultLogLevel = "info"
)

// Config holds client and development server settings. Values come from an
// optional YAML file and are overridden by environment variables (a .env file
// in the working directory is loaded first).
type Config struct {
	// APIURL forces the backend base URL, skipping the fallback chain.
	APIURL string `yaml:"api_url"`

	// Host is the hostname the client considers itself served from. Only
	// "localhost" and "127.0.0.1" change the resolved URL.
	Host string `yaml:"host"`

	LogLevel string `yaml:"log_level"`

	// LogFile receives log output while the TUI owns the terminal.
	LogFile string `yaml:"log_file"`

	// DBPath is the SQLite file used by the development server.
	DBPath string `yaml:"db_path"`

	// Listen is the development server listen address.
	Listen string `yaml:"listen"`
}

// Environment is the input to base URL resolution
type Environment struct {
	Override string
	Hostname string
}

// Environment returns the resolution input described by the config
func (c Config) Environment() Environment {
	return Environment{Override: c.APIURL, Hostname: c.Host}
}

// BaseURL resolves the backend base URL for this config
func (c Config) BaseURL() string {
	return ResolveBaseURL(c.Environment())
}

// ResolveBaseURL picks the backend base URL: an explicit override first, then
// the local development URL when the hostname is localhost, then the remote default.
func ResolveBaseURL(env Environment) string {
	if o := strings.TrimSpace(env.Override); o != "" {
		return strings.TrimRight(o, "/")
	}
	switch strings.ToLower(strings.TrimSpace(env.Hostname)) {
	case "localhost", "127.0.0.1":
		return LocalURL
	}
	return DefaultRemoteURL
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "issues", "config.yaml")
}

// Load reads the config file at path (a missing file is not an error), then
// applies .env and environment overrides and defaults.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	// Existing environment variables take precedence over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"ISSUES_API_URL":   &c.APIURL,
		"ISSUES_HOST":      &c.Host,
		"ISSUES_LOG_LEVEL": &c.LogLevel,
		"ISSUES_LOG_FILE":  &c.LogFile,
		"ISSUES_DB":        &c.DBPath,
		"ISSUES_LISTEN":    &c.Listen,
	}
	for name, dst := range overrides {
		if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogFile == "" {
		c.LogFile = defaultStateFile("issues.log")
	}
}

// defaultStateFile returns a path under the XDG state directory
func defaultStateFile(name string) string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "issues", name)
}
