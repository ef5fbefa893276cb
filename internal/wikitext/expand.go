package wikitext

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
)

// maxExpansionDepth bounds nesting of parser function arguments.
const maxExpansionDepth = 40

// ErrExpansionDepth is returned when invocations nest deeper than maxExpansionDepth.
var ErrExpansionDepth = errors.ParseError("parser function nesting too deep").Build()

type expander struct {
	ctx   context.Context
	frame *Frame
	funcs map[string]Func
}

// expand replaces every {{#name:...}} invocation of a registered function
// with its result. Anything else between braces is kept verbatim.
func (e *expander) expand(text string, depth int) (string, error) {
	if depth > maxExpansionDepth {
		return "", ErrExpansionDepth
	}
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	var b strings.Builder
	i := 0
	for {
		rel := strings.Index(text[i:], "{{")
		if rel < 0 {
			b.WriteString(text[i:])
			return b.String(), nil
		}
		start := i + rel
		end := matchBraces(text, start)
		if end < 0 {
			// Unbalanced opener: keep it literal and look for later invocations.
			b.WriteString(text[i : start+2])
			i = start + 2
			continue
		}
		b.WriteString(text[i:start])

		out, handled, err := e.invoke(text[start+2:end-2], depth)
		if err != nil {
			return "", err
		}
		if handled {
			b.WriteString(out)
		} else {
			b.WriteString(text[start:end])
		}
		i = end
	}
}

func (e *expander) invoke(inner string, depth int) (string, bool, error) {
	call := strings.TrimLeft(inner, " \t\n")
	if !strings.HasPrefix(call, "#") {
		return "", false, nil
	}
	rawName, rawArgs, found := strings.Cut(call[1:], ":")
	if !found {
		return "", false, nil
	}
	name := strings.ToLower(strings.TrimSpace(rawName))
	fn, ok := e.funcs[name]
	if !ok {
		return "", false, nil
	}

	parts := splitArgs(rawArgs)
	args := make([]string, 0, len(parts))
	for _, part := range parts {
		expanded, err := e.expand(part, depth+1)
		if err != nil {
			return "", false, err
		}
		args = append(args, strings.TrimSpace(expanded))
	}

	out, err := fn(e.ctx, e.frame, args)
	if err != nil {
		return "", false, errors.WrapError(err, errors.CategoryParse, "parser function failed").
			WithContext("function", name).
			WithContext("page", e.frame.title.PrefixedText()).
			Build()
	}
	return out, true, nil
}

// matchBraces returns the index just past the "}}" closing the "{{" at start, or -1.
func matchBraces(text string, start int) int {
	depth := 0
	for j := start; j+1 < len(text); {
		switch {
		case text[j] == '{' && text[j+1] == '{':
			depth++
			j += 2
		case text[j] == '}' && text[j+1] == '}':
			depth--
			j += 2
			if depth == 0 {
				return j
			}
		default:
			j++
		}
	}
	return -1
}

// splitArgs splits on '|' outside nested braces and wiki links.
func splitArgs(s string) []string {
	var (
		args   []string
		braces int
		links  int
		last   int
	)
	for j := 0; j < len(s); j++ {
		switch {
		case strings.HasPrefix(s[j:], "{{"):
			braces++
			j++
		case strings.HasPrefix(s[j:], "}}") && braces > 0:
			braces--
			j++
		case strings.HasPrefix(s[j:], "[["):
			links++
			j++
		case strings.HasPrefix(s[j:], "]]") && links > 0:
			links--
			j++
		case s[j] == '|' && braces == 0 && links == 0:
			args = append(args, s[last:j])
			last = j + 1
		}
	}
	return append(args, s[last:])
}
