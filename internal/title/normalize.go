package title

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// normalizeSpaces maps underscores to spaces, collapses whitespace runs and trims.
func normalizeSpaces(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
