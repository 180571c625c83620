package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultBaseURL = "http://localhost:5000"
	DefaultLogDir  = "logs"
	DefaultDBPath  = "schedchat.db"

	DefaultServiceName     = "schedchat"
	DefaultMetricsInterval = 10 * time.Second
)

// Environment variables consulted by Load.
const (
	EnvBaseURL = "SCHEDCHAT_BASE_URL"
	EnvLogDir  = "SCHEDCHAT_LOG_DIR"
	EnvDBPath  = "SCHEDCHAT_DB_PATH"
)

// Config holds application configuration
type Config struct {
	BaseURL   string `toml:"base_url"` // Scheduling assistant server (e.g., "http://localhost:5000")
	SessionID string `toml:"-"`        // Resume a stored local transcript
	Debug     bool   `toml:"debug"`
	LogDir    string `toml:"log_dir"`
	DBPath    string `toml:"db_path"`

	// RequestTimeout bounds each backend call. Zero means no timeout: a hung
	// call keeps the typing indicator visible.
	RequestTimeout time.Duration `toml:"request_timeout"`

	Telemetry       bool          `toml:"telemetry"` // Export traces and metrics to the log directory
	ServiceName     string        `toml:"service_name"`
	MetricsInterval time.Duration `toml:"metrics_interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		LogDir:  DefaultLogDir,
		DBPath:  DefaultDBPath,

		ServiceName:     DefaultServiceName,
		MetricsInterval: DefaultMetricsInterval,
	}
}

// Load builds a Config from defaults, the optional TOML file at path and the
// environment, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvLogDir); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base URL %q: missing host", c.BaseURL)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative, got %s", c.RequestTimeout)
	}
	if strings.TrimSpace(c.LogDir) == "" {
		return errors.New("log directory is required")
	}
	if c.Telemetry {
		if strings.TrimSpace(c.ServiceName) == "" {
			return errors.New("service name is required when telemetry is enabled")
		}
		if c.MetricsInterval <= 0 {
			return fmt.Errorf("metrics interval must be positive, got %s", c.MetricsInterval)
		}
	}
	return nil
}
