// Package frontmatter reads the YAML header of imported page source files.
package frontmatter

import (
	"bytes"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Header holds the fields an imported file may set. Unknown keys are ignored.
type Header struct {
	Title   string `yaml:"title"`
	User    string `yaml:"user"`
	Summary string `yaml:"summary"`
}

// Split separates YAML frontmatter (`---` delimited) from the page body.
//
// If the document does not start with a delimiter, had is false and body is
// the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the last line has no trailing newline.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			return content[start : len(content)-len("---")], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes its header. Header fields are trimmed.
func Parse(content []byte) (Header, []byte, error) {
	fm, body, had, err := Split(content)
	if err != nil || !had || len(bytes.TrimSpace(fm)) == 0 {
		return Header{}, body, err
	}

	var h Header
	if err := yaml.Unmarshal(fm, &h); err != nil {
		return Header{}, nil, err
	}
	h.Title = strings.TrimSpace(h.Title)
	h.User = strings.TrimSpace(h.User)
	h.Summary = strings.TrimSpace(h.Summary)
	return h, body, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
