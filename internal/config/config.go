// Package config loads and validates the autopage configuration file.
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
)

// CurrentVersion is the only configuration format version understood.
const CurrentVersion = "1.0"

// Config represents the application configuration.
type Config struct {
	Version    string           `yaml:"version"`
	Autocreate AutocreateConfig `yaml:"autocreate"`
	Wiki       WikiConfig       `yaml:"wiki"`
	Events     EventsConfig     `yaml:"events"`
	Notify     NotifyConfig     `yaml:"notify"`
	Server     ServerConfig     `yaml:"server"`
	Watch      WatchConfig      `yaml:"watch"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// AutocreateConfig controls the createpage parser function.
type AutocreateConfig struct {
	// MaxRecursion is nil when unset so that an explicit 0 can disable the function.
	MaxRecursion       *int  `yaml:"max_recursion,omitempty"`
	IgnoreEmptyTitle   bool  `yaml:"ignore_empty_title"`
	IgnoreEmptyContent bool  `yaml:"ignore_empty_content"`
	Namespaces         []int `yaml:"namespaces,omitempty"` // empty = wiki.content_namespaces
}

// Depth returns the configured recursion budget.
func (a AutocreateConfig) Depth() int {
	if a.MaxRecursion == nil {
		return DefaultMaxRecursion
	}
	return *a.MaxRecursion
}

// WikiConfig describes the page store and namespace table.
type WikiConfig struct {
	Database          string         `yaml:"database"` // file path or ":memory:"
	ContentNamespaces []int          `yaml:"content_namespaces"`
	ExtraNamespaces   map[string]int `yaml:"extra_namespaces,omitempty"`
	Language          string         `yaml:"language"`
	DefaultUser       string         `yaml:"default_user"`
}

// EventsConfig describes the audit log.
type EventsConfig struct {
	Database      string `yaml:"database"`
	Retention     string `yaml:"retention"`      // Go duration, e.g. "720h"
	PruneInterval string `yaml:"prune_interval"` // Go duration
}

func (e EventsConfig) RetentionDuration() time.Duration     { return mustDuration(e.Retention) }
func (e EventsConfig) PruneIntervalDuration() time.Duration { return mustDuration(e.PruneInterval) }

// NotifyConfig enables NATS notifications for auto-created pages.
type NotifyConfig struct {
	NATSURL string      `yaml:"nats_url"` // empty disables notifications
	Subject string      `yaml:"subject"`
	Retry   RetryConfig `yaml:"retry"`
}

// RetryBackoffMode enumerates supported retry backoff strategies.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// RetryConfig controls retries of failed notification publishes.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff"`
	Initial    string           `yaml:"initial"` // Go duration
	Max        string           `yaml:"max"`     // Go duration
	MaxRetries *int             `yaml:"max_retries,omitempty"`
}

func (r RetryConfig) InitialDuration() time.Duration { return mustDuration(r.Initial) }
func (r RetryConfig) MaxDuration() time.Duration     { return mustDuration(r.Max) }

// Retries returns the configured retry count.
func (r RetryConfig) Retries() int {
	if r.MaxRetries == nil {
		return DefaultRetryMaxRetries
	}
	return *r.MaxRetries
}

// Enabled reports whether a NATS server is configured.
func (n NotifyConfig) Enabled() bool { return n.NATSURL != "" }

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// WatchConfig configures the import directory watcher.
type WatchConfig struct {
	Dir      string `yaml:"dir"` // empty disables the watcher
	Debounce string `yaml:"debounce"`
}

func (w WatchConfig) DebounceDuration() time.Duration { return mustDuration(w.Debounce) }

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path"`
}

// IsEnabled defaults to true when unset.
func (m MonitoringMetrics) IsEnabled() bool { return m.Enabled == nil || *m.Enabled }

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load loads configuration from the specified file. Variables from a .env
// file in the working directory are loaded first, and ${VAR} references in
// the file are expanded from the environment.
func Load(configPath string) (*Config, error) {
	if loaded, err := loadEnvFile(); err == nil {
		slog.Debug("Loaded environment variables", slog.String("path", loaded))
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundError("configuration file not found").WithContext("path", configPath).Build()
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").WithContext("path", configPath).Build()
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes, normalizes, defaults and validates a configuration document.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}
	return finish(&cfg)
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg, err := finish(&Config{})
	if err != nil {
		panic(err) // defaults always validate
	}
	return cfg
}

func finish(cfg *Config) (*Config, error) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return nil, errors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", CurrentVersion).
			Build()
	}

	res := NormalizeConfig(cfg)
	for _, w := range res.Warnings {
		slog.Warn("Config normalization", slog.String("warning", w))
	}
	applyDefaults(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.AlreadyExistsError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Example()
	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to write config file").WithContext("path", configPath).Build()
	}
	return nil
}

// Example returns a fully populated configuration with every section spelled out.
func Example() *Config {
	cfg := Default()
	cfg.Wiki.ExtraNamespaces = map[string]int{"Recipe": 100, "Recipe talk": 101}
	cfg.Wiki.ContentNamespaces = []int{0, 100}
	cfg.Notify.NATSURL = "nats://127.0.0.1:4222"
	cfg.Watch.Dir = "./pages"
	return cfg
}
