// Package wikitext expands parser functions in page source and renders the
// result to HTML.
//
// Page source is Markdown extended with three wiki constructs:
//
//   - parser function calls, {{#name:arg1|arg2}}, dispatched to functions
//     registered on the Preprocessor;
//   - wiki links, [[Target]] and [[Target|label]];
//   - <nowiki>...</nowiki> sections, kept verbatim and shielded from both.
package wikitext

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/title"
)

// Func implements a parser function. The returned string replaces the call.
// An error aborts the whole parse.
type Func func(ctx context.Context, f *Frame, args []string) (string, error)

// Frame is what a parser function can see of the page being rendered.
type Frame struct {
	title  title.Title
	output *Output
	strip  *StripState
}

func (f *Frame) Title() title.Title         { return f.title }
func (f *Frame) Namespace() title.Namespace { return f.title.Namespace }
func (f *Frame) Output() *Output            { return f.output }

// UnstripNoWiki restores <nowiki> sections inside s to the text the author wrote.
func (f *Frame) UnstripNoWiki(s string) string { return f.strip.UnstripNoWiki(s) }

// Preprocessor owns the parser function registry and the Markdown renderer.
type Preprocessor struct {
	mu       sync.RWMutex
	funcs    map[string]Func
	titles   *title.Parser
	md       goldmark.Markdown
	linkBase string
}

// New creates a preprocessor that resolves wiki links with titles and points
// them at linkBase + DB key (e.g. "/pages/").
func New(titles *title.Parser, linkBase string) *Preprocessor {
	if titles == nil {
		titles = title.DefaultParser()
	}
	return &Preprocessor{
		funcs:    make(map[string]Func),
		titles:   titles,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM, wikiLinks{})),
		linkBase: linkBase,
	}
}

// Register adds a parser function. Names are case-insensitive.
func (p *Preprocessor) Register(name string, fn Func) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || fn == nil || strings.ContainsAny(key, ":|{}") {
		return errors.ValidationError("invalid parser function registration").WithContext("function", name).Build()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.funcs[key]; exists {
		return errors.AlreadyExistsError("parser function already registered").WithContext("function", key).Build()
	}
	p.funcs[key] = fn
	return nil
}

// Functions lists registered function names, sorted.
func (p *Preprocessor) Functions() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.funcs))
	for name := range p.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse renders the source of page t. Parser functions run synchronously
// with ctx and may record side data on the returned Output.
func (p *Preprocessor) Parse(ctx context.Context, t title.Title, source string) (*Output, error) {
	p.mu.RLock()
	funcs := make(map[string]Func, len(p.funcs))
	for k, v := range p.funcs {
		funcs[k] = v
	}
	p.mu.RUnlock()

	strip := newStripState()
	out := &Output{}
	exp := &expander{
		ctx:   ctx,
		frame: &Frame{title: t, output: out, strip: strip},
		funcs: funcs,
	}

	expanded, err := exp.expand(strip.strip(source), 0)
	if err != nil {
		return nil, err
	}

	src := []byte(expanded)
	root := p.md.Parser().Parse(gmtext.NewReader(src))
	links := resolveLinks(root, p.titles, p.linkBase)
	var buf bytes.Buffer
	if err := p.md.Renderer().Render(&buf, src, root); err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "render markdown").
			WithContext("page", t.PrefixedText()).
			Build()
	}

	out.Text = strip.UnstripNoWiki(expanded)
	out.HTML = strip.unstripHTML(buf.String())
	out.Links = links
	return out, nil
}
