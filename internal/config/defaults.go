package config

// Default values.
const (
	DefaultMaxRecursion  = 1
	DefaultDatabase      = "./autopage.db"
	DefaultEventDatabase = "./autopage-events.db"
	DefaultRetention     = "720h"
	DefaultPruneInterval = "1h"
	DefaultSubject       = "autopage.pages.autocreated"
	DefaultAddr          = ":8080"
	DefaultDebounce      = "500ms"
	DefaultMetricsPath   = "/metrics"
	DefaultLanguage      = "en"
	DefaultUser          = "Autopage"

	DefaultRetryBackoff    = RetryBackoffExponential
	DefaultRetryInitial    = "100ms"
	DefaultRetryMax        = "2s"
	DefaultRetryMaxRetries = 3
)

// applyDefaults fills every unset field. It runs after normalization.
func applyDefaults(cfg *Config) {
	if cfg.Autocreate.MaxRecursion == nil {
		depth := DefaultMaxRecursion
		cfg.Autocreate.MaxRecursion = &depth
	}

	w := &cfg.Wiki
	if w.Database == "" {
		w.Database = DefaultDatabase
	}
	if len(w.ContentNamespaces) == 0 {
		w.ContentNamespaces = []int{0}
	}
	if w.Language == "" {
		w.Language = DefaultLanguage
	}
	if w.DefaultUser == "" {
		w.DefaultUser = DefaultUser
	}
	if len(cfg.Autocreate.Namespaces) == 0 {
		cfg.Autocreate.Namespaces = append([]int(nil), w.ContentNamespaces...)
	}

	e := &cfg.Events
	if e.Database == "" {
		e.Database = DefaultEventDatabase
	}
	if e.Retention == "" {
		e.Retention = DefaultRetention
	}
	if e.PruneInterval == "" {
		e.PruneInterval = DefaultPruneInterval
	}

	n := &cfg.Notify
	if n.Subject == "" {
		n.Subject = DefaultSubject
	}
	if n.Retry.Backoff == "" {
		n.Retry.Backoff = DefaultRetryBackoff
	}
	if n.Retry.Initial == "" {
		n.Retry.Initial = DefaultRetryInitial
	}
	if n.Retry.Max == "" {
		n.Retry.Max = DefaultRetryMax
	}
	if n.Retry.MaxRetries == nil {
		retries := DefaultRetryMaxRetries
		n.Retry.MaxRetries = &retries
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultDebounce
	}

	m := &cfg.Monitoring
	if m.Metrics.Path == "" {
		m.Metrics.Path = DefaultMetricsPath
	}
	if m.Logging.Level == "" {
		m.Logging.Level = LogLevelInfo
	}
	if m.Logging.Format == "" {
		m.Logging.Format = LogFormatText
	}
}
