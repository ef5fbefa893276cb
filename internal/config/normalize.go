package config

import (
	"fmt"
	"sort"
	"strings"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerated, free-text and list fields before
// defaults are applied. It mutates c in place.
func NormalizeConfig(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	normalizeMonitoring(&c.Monitoring, res)

	c.Wiki.Language = strings.TrimSpace(c.Wiki.Language)
	c.Wiki.DefaultUser = strings.TrimSpace(c.Wiki.DefaultUser)
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	c.Notify.NATSURL = strings.TrimSpace(c.Notify.NATSURL)
	c.Notify.Subject = strings.TrimSpace(c.Notify.Subject)

	if raw := string(c.Notify.Retry.Backoff); strings.TrimSpace(raw) != "" {
		mode := NormalizeRetryBackoff(raw)
		if _, ok := retryBackoffNormalizer.Lookup(raw); !ok {
			res.Warnings = append(res.Warnings, warnUnknown("notify.retry.backoff", raw, string(mode), retryBackoffNormalizer.Keys()))
		} else if raw != string(mode) {
			res.Warnings = append(res.Warnings, warnChanged("notify.retry.backoff", raw, mode))
		}
		c.Notify.Retry.Backoff = mode
	}

	c.Wiki.ContentNamespaces = dedupe("wiki.content_namespaces", c.Wiki.ContentNamespaces, res)
	c.Autocreate.Namespaces = dedupe("autocreate.namespaces", c.Autocreate.Namespaces, res)

	if path := c.Monitoring.Metrics.Path; path != "" && !strings.HasPrefix(path, "/") {
		c.Monitoring.Metrics.Path = "/" + path
		res.Warnings = append(res.Warnings, warnChanged("monitoring.metrics.path", path, c.Monitoring.Metrics.Path))
	}
	return res
}

func normalizeMonitoring(m *MonitoringConfig, res *NormalizationResult) {
	if raw := string(m.Logging.Level); strings.TrimSpace(raw) != "" {
		lvl := NormalizeLogLevel(raw)
		if _, ok := logLevelNormalizer.Lookup(raw); !ok {
			res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.level", raw, string(lvl), logLevelNormalizer.Keys()))
		} else if raw != string(lvl) {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.level", raw, lvl))
		}
		m.Logging.Level = lvl
	}
	if raw := string(m.Logging.Format); strings.TrimSpace(raw) != "" {
		f := NormalizeLogFormat(raw)
		if _, ok := logFormatNormalizer.Lookup(raw); !ok {
			res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.format", raw, string(f), logFormatNormalizer.Keys()))
		} else if raw != string(f) {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.format", raw, f))
		}
		m.Logging.Format = f
	}
}

// dedupe sorts ids and drops duplicates.
func dedupe(field string, ids []int, res *NormalizationResult) []int {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: dropped duplicate namespace %d", field, id))
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, fallback string, valid []string) string {
	return fmt.Sprintf("unknown %s '%s' (valid: %s), using '%s'", field, value, strings.Join(valid, ", "), fallback)
}
