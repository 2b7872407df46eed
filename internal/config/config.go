// Package config loads SilverShell settings from a JSON or YAML file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given. A missing default file is not an error.
const DefaultPath = "config.json"

// Environment variables that override file settings.
const (
	EnvAPIKey       = "GEMINI_API_KEY"
	EnvAltAPIKey    = "SILVERSHELL_API_KEY"
	EnvModel        = "SILVERSHELL_MODEL"
	EnvRedisAddress = "SILVERSHELL_REDIS_ADDR"
	EnvJournalKey   = "SILVERSHELL_JOURNAL_KEY"
)

// Journal backends.
const (
	JournalNone   = "none"
	JournalMemory = "memory"
	JournalFile   = "file"
	JournalRedis  = "redis"
)

var (
	// ErrMissingCredential is returned when no API key is configured.
	ErrMissingCredential = errors.New("'gemini_api_key' not found in config or environment")
	// ErrInvalidConfig wraps validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the complete SilverShell configuration.
type Config struct {
	APIKey      string          `mapstructure:"gemini_api_key"`
	Assistant   AssistantConfig `mapstructure:"assistant"`
	Exec        ExecConfig      `mapstructure:"exec"`
	RulesPath   string          `mapstructure:"rules_path"`
	Denylist    []string        `mapstructure:"denylist"`
	Journal     JournalConfig   `mapstructure:"journal"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	HistoryFile string          `mapstructure:"history_file"`
	Log         LogConfig       `mapstructure:"log"`
}

// AssistantConfig configures the language model client and the background dispatcher.
type AssistantConfig struct {
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxInFlight int           `mapstructure:"max_in_flight"`
	QueueLimit  int           `mapstructure:"queue_limit"`
}

// ExecConfig configures the command executor.
type ExecConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Dir     string        `mapstructure:"dir"`
}

// JournalConfig selects and configures the session journal.
type JournalConfig struct {
	Backend       string        `mapstructure:"backend"`
	Path          string        `mapstructure:"path"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
	MaxEntries    int           `mapstructure:"max_entries"`

	// Redact masks credentials in entries before they are stored.
	Redact         bool     `mapstructure:"redact"`
	RedactPatterns []string `mapstructure:"redact_patterns"`
	// EncryptionKey is a base64 AES-256 key; entries are encrypted at rest when set.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures diagnostics.
type LogConfig struct {
	Debug bool   `mapstructure:"debug"`
	File  string `mapstructure:"file"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Assistant: AssistantConfig{
			Model:       "gemini-2.5-flash",
			BaseURL:     "https://generativelanguage.googleapis.com/v1/models",
			Timeout:     60 * time.Second,
			MaxInFlight: 4,
			QueueLimit:  32,
		},
		Journal: JournalConfig{
			Backend: JournalNone,
		},
	}
}

// Load reads path (DefaultPath when empty), applies environment overrides and
// validates the result. The format is chosen by extension: .yaml and .yml are
// YAML, anything else is JSON.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, err
		}
	case os.IsNotExist(err) && !explicit:
		// Environment only.
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	raw := map[string]any{}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse yaml config %s: %w", path, err)
		}
	} else {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse json config %s: %w", path, err)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	} else if v := os.Getenv(EnvAltAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Assistant.Model = v
	}
	if v := os.Getenv(EnvRedisAddress); v != "" {
		c.Journal.RedisAddr = v
	}
	if v := os.Getenv(EnvJournalKey); v != "" {
		c.Journal.EncryptionKey = v
	}
}

// Validate checks value ranges. It does not require a credential; see RequireCredential.
func (c Config) Validate() error {
	switch c.Journal.Backend {
	case "", JournalNone, JournalMemory, JournalFile:
	case JournalRedis:
		if c.Journal.RedisAddr == "" {
			return fmt.Errorf("%w: journal.redis_addr is required for the redis backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown journal backend %q", ErrInvalidConfig, c.Journal.Backend)
	}
	if c.Assistant.MaxInFlight < 0 || c.Assistant.QueueLimit < 0 {
		return fmt.Errorf("%w: assistant limits must not be negative", ErrInvalidConfig)
	}
	if c.Assistant.Timeout < 0 || c.Exec.Timeout < 0 || c.Journal.TTL < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	return nil
}

// RequireCredential returns ErrMissingCredential when no API key is set.
func (c Config) RequireCredential() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingCredential
	}
	return nil
}
