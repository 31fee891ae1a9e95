package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MinResponseBytes is the smallest accepted rendered-payload limit.
const MinResponseBytes = 10 << 20

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	Prefork         bool          `yaml:"prefork"`
	APIKey          string        `yaml:"api_key"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LoggerConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type BrowserlessConfig struct {
	BaseURL          string        `yaml:"base_url"`
	Token            string        `yaml:"token"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxResponseBytes int           `yaml:"max_response_bytes"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the full relay configuration. It is loaded once at startup and
// never mutated afterwards.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logger      LoggerConfig      `yaml:"logger"`
	Browserless BrowserlessConfig `yaml:"browserless"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// Default returns the configuration used for keys absent from the file.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Logger: LoggerConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
		Browserless: BrowserlessConfig{
			BaseURL:          "https://chrome.browserless.io",
			Timeout:          60 * time.Second,
			MaxResponseBytes: MinResponseBytes,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads the file named by CONFIG_PATH (default config.yaml) after loading
// an optional .env file into the environment.
func Load() Config {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFrom(path)
}

// LoadFrom reads the YAML file at path, applies environment overrides and
// validates the result. A missing file yields defaults plus environment.
// It panics on unreadable files or invalid values.
func LoadFrom(path string) Config {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			panic(fmt.Sprintf("config: parse %s: %v", path, err))
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		panic(fmt.Sprintf("config: read %s: %v", path, err))
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BROWSERLESS_TOKEN"); v != "" {
		cfg.Browserless.Token = v
	}
	if v := os.Getenv("BROWSERLESS_BASE_URL"); v != "" {
		cfg.Browserless.BaseURL = v
	}
	if v := os.Getenv("RELAY_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	// Common container convention.
	if v := os.Getenv("PORT"); v != "" {
		if !strings.HasPrefix(v, ":") {
			v = ":" + v
		}
		cfg.Server.Port = v
	}
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Browserless.Token) == "" {
		return errors.New("browserless.token is empty (set it in the file or via BROWSERLESS_TOKEN)")
	}
	u, err := url.Parse(c.Browserless.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("browserless.base_url must be an http(s) URL, got %q", c.Browserless.BaseURL)
	}
	if c.Browserless.Timeout <= 0 {
		return fmt.Errorf("browserless.timeout must be positive, got %s", c.Browserless.Timeout)
	}
	if c.Browserless.MaxResponseBytes < MinResponseBytes {
		return fmt.Errorf("browserless.max_response_bytes must be at least %d, got %d", MinResponseBytes, c.Browserless.MaxResponseBytes)
	}
	if c.Server.Port == "" {
		return errors.New("server.port is empty")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	return nil
}
