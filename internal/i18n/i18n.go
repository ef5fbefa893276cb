// Package i18n holds the user-visible strings of autopage and renders them
// through golang.org/x/text message catalogs.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	MsgRecursionExceeded = "autocreatepage-recursion-exceeded"
	MsgEmptyTitle        = "autocreatepage-empty-title"
	MsgEmptyContent      = "autocreatepage-empty-content"
	MsgSummary           = "autocreatepage-summary"
)

var translations = map[language.Tag]map[string]string{
	language.English: {
		MsgRecursionExceeded: "Error: Recursion level for auto-created pages exceeded.",
		MsgEmptyTitle:        "Error: this function must be given a valid title text for the page to be created.",
		MsgEmptyContent:      "Error: this function must be given content for the page to be created.",
		MsgSummary:           "Page created automatically by parser function on page [[%s]]",
	},
	language.German: {
		MsgRecursionExceeded: "Fehler: Die Rekursionstiefe für automatisch erstellte Seiten wurde überschritten.",
		MsgEmptyTitle:        "Fehler: Dieser Funktion muss ein gültiger Titel für die zu erstellende Seite übergeben werden.",
		MsgEmptyContent:      "Fehler: Dieser Funktion muss ein Inhalt für die zu erstellende Seite übergeben werden.",
		MsgSummary:           "Seite automatisch durch Parserfunktion auf der Seite [[%s]] erstellt",
	},
}

var (
	supported []language.Tag
	cat       *catalog.Builder
	matcher   language.Matcher
)

func init() {
	cat = catalog.NewBuilder(catalog.Fallback(language.English))
	supported = []language.Tag{language.English, language.German}
	for _, tag := range supported {
		for key, msg := range translations[tag] {
			if err := cat.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	matcher = language.NewMatcher(supported)
}

// Supported lists the languages that have a full translation set.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Localizer renders message keys in one language. It is safe for concurrent use.
type Localizer struct {
	tag language.Tag
}

// New returns a localizer for the best supported match of lang (a BCP 47
// string such as "de-CH"). Unknown or malformed values fall back to English.
func New(lang string) *Localizer {
	tag, err := language.Parse(lang)
	if err != nil {
		return &Localizer{tag: language.English}
	}
	_, idx, _ := matcher.Match(tag)
	return &Localizer{tag: supported[idx]}
}

// Language returns the tag messages are rendered in.
func (l *Localizer) Language() language.Tag { return l.tag }

// Message renders key with args.
func (l *Localizer) Message(key string, args ...any) string {
	return message.NewPrinter(l.tag, message.Catalog(cat)).Sprintf(key, args...)
}
