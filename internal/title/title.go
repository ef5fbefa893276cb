// Package title resolves free-form title text into canonical wiki titles.
package title

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
)

// MaxTitleBytes bounds the stored form of a title.
const MaxTitleBytes = 255

// ErrInvalidTitle is the sentinel for every title rejected by Parser.Parse.
// The "reason" context key says why.
var ErrInvalidTitle = errors.TitleError("invalid title").Build()

// Title is a canonical page reference.
type Title struct {
	Namespace     Namespace
	NamespaceName string // canonical prefix, empty for the main namespace
	Text          string // page name with spaces, first letter uppercase
	Fragment      string
}

// PrefixedText returns "Namespace:Text", or Text in the main namespace.
func (t Title) PrefixedText() string {
	prefix := t.NamespaceName
	if prefix == "" && t.Namespace != NamespaceMain {
		prefix = t.Namespace.String()
	}
	if prefix == "" {
		return t.Text
	}
	return prefix + ":" + t.Text
}

// DBKey returns the prefixed form with underscores, as used in URLs and keys.
func (t Title) DBKey() string {
	return strings.ReplaceAll(t.PrefixedText(), " ", "_")
}

// CanExist reports whether a page may be stored under this title.
func (t Title) CanExist() bool {
	return t.Text != "" && t.Namespace.CanHoldPages()
}

func (t Title) IsZero() bool { return t.Text == "" && t.Namespace == NamespaceMain }

func (t Title) String() string { return t.PrefixedText() }

// Parser turns title text into Titles using a fixed namespace table.
type Parser struct {
	byFolded map[string]Namespace
	names    map[Namespace]string
}

// NewParser builds a parser knowing the builtin namespaces plus extra
// (name -> id). Extra ids must be >= MinCustomNamespace.
func NewParser(extra map[string]int) (*Parser, error) {
	p := &Parser{
		byFolded: make(map[string]Namespace, len(builtinNames)+len(extra)),
		names:    make(map[Namespace]string, len(builtinNames)+len(extra)),
	}
	for ns, name := range builtinNames {
		p.names[ns] = name
		if name != "" {
			p.byFolded[fold(name)] = ns
		}
	}
	for alias, ns := range builtinAliases {
		p.byFolded[fold(alias)] = ns
	}
	for rawName, id := range extra {
		name := normalizeSpaces(rawName)
		ns := Namespace(id)
		switch {
		case name == "" || strings.ContainsAny(name, ":#<>[]|{}"):
			return nil, errors.ConfigError("invalid namespace name").WithContext("namespace", rawName).Build()
		case ns < MinCustomNamespace:
			return nil, errors.ConfigError("custom namespace id must be >= 100").WithContext("namespace", rawName).WithContext("id", id).Build()
		}
		folded := fold(name)
		if _, taken := p.byFolded[folded]; taken {
			return nil, errors.ConfigError("duplicate namespace name").WithContext("namespace", rawName).Build()
		}
		if _, taken := p.names[ns]; taken {
			return nil, errors.ConfigError("duplicate namespace id").WithContext("id", id).Build()
		}
		p.byFolded[folded] = ns
		p.names[ns] = name
	}
	return p, nil
}

// DefaultParser returns a parser with only the builtin namespaces.
func DefaultParser() *Parser {
	p, _ := NewParser(nil)
	return p
}

// NamespaceName returns the canonical prefix for ns.
func (p *Parser) NamespaceName(ns Namespace) (string, bool) {
	name, ok := p.names[ns]
	return name, ok
}

// NamespaceByName looks up a namespace by any known name, case-insensitively.
func (p *Parser) NamespaceByName(name string) (Namespace, bool) {
	ns, ok := p.byFolded[fold(normalizeSpaces(name))]
	return ns, ok
}

// Make builds a title in a known namespace without prefix interpretation.
func (p *Parser) Make(ns Namespace, text string) (Title, error) {
	name, ok := p.names[ns]
	if !ok {
		return Title{}, invalid(text, "unknown namespace")
	}
	return p.finish(Title{Namespace: ns, NamespaceName: name}, normalizeSpaces(norm.NFC.String(text)), text)
}

// Parse resolves title text. A leading colon forces the main namespace.
func (p *Parser) Parse(text string) (Title, error) {
	s := normalizeSpaces(norm.NFC.String(text))

	forceMain := false
	if strings.HasPrefix(s, ":") {
		forceMain = true
		s = strings.TrimSpace(s[1:])
	}

	t := Title{Namespace: NamespaceMain}
	if !forceMain {
		if prefix, rest, found := strings.Cut(s, ":"); found {
			if ns, ok := p.NamespaceByName(prefix); ok {
				t.Namespace = ns
				t.NamespaceName = p.names[ns]
				s = strings.TrimSpace(rest)
			}
		}
	}
	return p.finish(t, s, text)
}

func (p *Parser) finish(t Title, s, original string) (Title, error) {
	if name, frag, found := strings.Cut(s, "#"); found {
		s = strings.TrimSpace(name)
		t.Fragment = strings.TrimSpace(frag)
	}
	if reason := illegal(s); reason != "" {
		return Title{}, invalid(original, reason)
	}
	t.Text = upperFirst(s)
	if len(t.PrefixedText()) > MaxTitleBytes {
		return Title{}, invalid(original, "title too long")
	}
	return t, nil
}

// fold case-folds a namespace name. Casers are stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

func invalid(text, reason string) error {
	return ErrInvalidTitle.WithContext("title", text).WithContext("reason", reason)
}

// illegal returns a non-empty reason when s cannot be a page name.
func illegal(s string) string {
	switch {
	case s == "":
		return "empty title"
	case strings.ContainsAny(s, "<>[]|{}"):
		return "illegal characters"
	case strings.Contains(s, "~~~"):
		return "signature sequence"
	case s == "." || s == ".." ||
		strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") ||
		strings.Contains(s, "/./") || strings.Contains(s, "/../") ||
		strings.HasSuffix(s, "/.") || strings.HasSuffix(s, "/.."):
		return "relative path"
	case hasPercentEscape(s):
		return "percent-encoded characters"
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f || r == utf8.RuneError {
			return "control characters"
		}
	}
	return ""
}

func hasPercentEscape(s string) bool {
	for i := 0; i+2 < len(s); i++ {
		if s[i] == '%' && isHex(s[i+1]) && isHex(s[i+2]) {
			return true
		}
	}
	return false
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
