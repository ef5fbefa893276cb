package wikitext

import (
	"html"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	markerPrefix = "\x7fUNIQ-nowiki-"
	markerSuffix = "-QINU\x7f"
)

var (
	nowikiBlock     = regexp.MustCompile(`(?is)<nowiki\s*>(.*?)</nowiki\s*>`)
	nowikiSelfClose = regexp.MustCompile(`(?i)<nowiki\s*/>`)
	markerPattern   = regexp.MustCompile("\x7fUNIQ-nowiki-[0-9a-f-]{36}-QINU\x7f")
)

// StripState holds text shielded from expansion by <nowiki>. Each section is
// replaced by an opaque marker that survives expansion and rendering.
type StripState struct {
	items map[string]string
}

func newStripState() *StripState {
	return &StripState{items: make(map[string]string)}
}

// strip replaces every <nowiki> section of text with a marker.
func (s *StripState) strip(text string) string {
	text = nowikiBlock.ReplaceAllStringFunc(text, func(m string) string {
		return s.add(nowikiBlock.FindStringSubmatch(m)[1])
	})
	return nowikiSelfClose.ReplaceAllStringFunc(text, func(string) string {
		return s.add("")
	})
}

func (s *StripState) add(raw string) string {
	marker := markerPrefix + uuid.NewString() + markerSuffix
	s.items[marker] = raw
	return marker
}

// UnstripNoWiki replaces markers in text with the literal text the author wrote.
func (s *StripState) UnstripNoWiki(text string) string {
	if s == nil || !strings.Contains(text, markerPrefix) {
		return text
	}
	return markerPattern.ReplaceAllStringFunc(text, func(m string) string {
		if raw, ok := s.items[m]; ok {
			return raw
		}
		return m
	})
}

// unstripHTML replaces markers in rendered HTML with the escaped literal text.
func (s *StripState) unstripHTML(text string) string {
	if !strings.Contains(text, markerPrefix) {
		return text
	}
	return markerPattern.ReplaceAllStringFunc(text, func(m string) string {
		if raw, ok := s.items[m]; ok {
			return html.EscapeString(raw)
		}
		return ""
	})
}

// Len reports how many sections were stripped.
func (s *StripState) Len() int { return len(s.items) }
