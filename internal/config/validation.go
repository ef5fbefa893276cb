package config

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/title"
)

// Upper bounds for numeric settings.
const (
	MaxRecursionLimit = 16
	MaxRetryLimit     = 10
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
	titles *title.Parser
}

func (cv *configurationValidator) validate() error {
	// Namespaces first: later checks resolve ids against the table.
	if err := cv.validateWiki(); err != nil {
		return err
	}
	if err := cv.validateAutocreate(); err != nil {
		return err
	}
	if err := cv.validateEvents(); err != nil {
		return err
	}
	if err := cv.validateNotify(); err != nil {
		return err
	}
	if err := cv.validateWatch(); err != nil {
		return err
	}
	return cv.validateServer()
}

func (cv *configurationValidator) validateWiki() error {
	w := cv.config.Wiki
	titles, err := title.NewParser(w.ExtraNamespaces)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid wiki.extra_namespaces").Build()
	}
	cv.titles = titles

	if strings.TrimSpace(w.Database) == "" {
		return invalid("wiki.database", "must not be empty", w.Database)
	}
	if err := cv.validateNamespaceIDs("wiki.content_namespaces", w.ContentNamespaces); err != nil {
		return err
	}
	if _, err := language.Parse(w.Language); err != nil {
		return invalid("wiki.language", "must be a BCP 47 language tag", w.Language)
	}
	return nil
}

func (cv *configurationValidator) validateAutocreate() error {
	a := cv.config.Autocreate
	if d := a.Depth(); d < 0 || d > MaxRecursionLimit {
		return invalid("autocreate.max_recursion", "must be between 0 and 16", d)
	}
	return cv.validateNamespaceIDs("autocreate.namespaces", a.Namespaces)
}

func (cv *configurationValidator) validateNamespaceIDs(field string, ids []int) error {
	for _, id := range ids {
		ns := title.Namespace(id)
		if _, ok := cv.titles.NamespaceName(ns); !ok {
			return invalid(field, "unknown namespace", id)
		}
		if !ns.CanHoldPages() {
			return invalid(field, "namespace cannot hold pages", id)
		}
	}
	return nil
}

func (cv *configurationValidator) validateEvents() error {
	e := cv.config.Events
	if strings.TrimSpace(e.Database) == "" {
		return invalid("events.database", "must not be empty", e.Database)
	}
	if err := positiveDuration("events.retention", e.Retention); err != nil {
		return err
	}
	return positiveDuration("events.prune_interval", e.PruneInterval)
}

func (cv *configurationValidator) validateNotify() error {
	n := cv.config.Notify
	if err := positiveDuration("notify.retry.initial", n.Retry.Initial); err != nil {
		return err
	}
	if err := positiveDuration("notify.retry.max", n.Retry.Max); err != nil {
		return err
	}
	if r := n.Retry.Retries(); r < 0 || r > MaxRetryLimit {
		return invalid("notify.retry.max_retries", "must be between 0 and 10", r)
	}
	if !n.Enabled() {
		return nil
	}
	u, err := url.Parse(n.NATSURL)
	if err != nil || u.Host == "" {
		return invalid("notify.nats_url", "must be a URL such as nats://host:4222", n.NATSURL)
	}
	if strings.ContainsAny(n.Subject, " \t*>") || strings.HasPrefix(n.Subject, ".") || strings.HasSuffix(n.Subject, ".") {
		return invalid("notify.subject", "must be a literal NATS subject", n.Subject)
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	return positiveDuration("watch.debounce", cv.config.Watch.Debounce)
}

func (cv *configurationValidator) validateServer() error {
	if cv.config.Server.Addr == "" {
		return invalid("server.addr", "must not be empty", "")
	}
	return nil
}

func positiveDuration(field, raw string) error {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return invalid(field, "must be a duration such as 30s or 1h", raw)
	}
	if d <= 0 {
		return invalid(field, "must be positive", raw)
	}
	return nil
}

func mustDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

func invalid(field, reason string, value any) error {
	return errors.ConfigError("invalid configuration: "+field+" "+reason).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}
