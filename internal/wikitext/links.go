package wikitext

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/autopage/internal/title"
)

// KindWikiLink is the AST kind of [[Target|label]] links.
var KindWikiLink = gmast.NewNodeKind("WikiLink")

// WikiLink is an inline [[Target]] or [[Target|label]] node. Href stays
// empty until the target resolves to a valid title; unresolved links
// render as the text the author wrote.
type WikiLink struct {
	gmast.BaseInline
	Target string
	Label  string
	Raw    string
	Href   string
}

func (n *WikiLink) Kind() gmast.NodeKind { return KindWikiLink }

func (n *WikiLink) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{"Target": n.Target, "Label": n.Label, "Href": n.Href}, nil)
}

// wikiLinkParser runs ahead of the CommonMark link parser, which shares the
// '[' trigger. Code spans and code blocks never reach inline parsers, so
// [[...]] inside them stays literal.
type wikiLinkParser struct{}

func (wikiLinkParser) Trigger() []byte { return []byte{'['} }

func (wikiLinkParser) Parse(_ gmast.Node, block text.Reader, _ parser.Context) gmast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, []byte("[[")) {
		return nil
	}
	end := bytes.Index(line[2:], []byte("]]"))
	if end < 0 {
		return nil
	}
	inner := line[2 : 2+end]
	if bytes.ContainsAny(inner, "[]\n") {
		return nil
	}
	target, label, _ := bytes.Cut(inner, []byte("|"))
	if len(bytes.TrimSpace(target)) == 0 {
		return nil
	}
	raw := string(line[:end+4])
	block.Advance(len(raw))
	return &WikiLink{Target: string(target), Label: strings.TrimSpace(string(label)), Raw: raw}
}

type wikiLinkRenderer struct{}

func (r wikiLinkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindWikiLink, r.render)
}

func (wikiLinkRenderer) render(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*WikiLink)
	if n.Href == "" {
		_, _ = w.Write(util.EscapeHTML([]byte(n.Raw)))
		return gmast.WalkSkipChildren, nil
	}
	_, _ = w.WriteString(`<a href="`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Href)))
	_, _ = w.WriteString(`">`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Label)))
	_, _ = w.WriteString("</a>")
	return gmast.WalkSkipChildren, nil
}

// wikiLinks is the goldmark extension for [[...]] links.
type wikiLinks struct{}

func (wikiLinks) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(util.Prioritized(wikiLinkParser{}, 199)))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(wikiLinkRenderer{}, 500)))
}

// resolveLinks points every WikiLink in root at linkBase + DB key and
// returns the prefixed titles of the valid targets in first-seen order.
func resolveLinks(root gmast.Node, titles *title.Parser, linkBase string) []string {
	var links []string
	seen := make(map[string]bool)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		link, ok := n.(*WikiLink)
		if !ok {
			return gmast.WalkContinue, nil
		}
		target, err := titles.Parse(link.Target)
		if err != nil {
			return gmast.WalkSkipChildren, nil
		}
		if link.Label == "" {
			link.Label = strings.TrimSpace(link.Target)
		}
		link.Href = linkBase + url.PathEscape(target.DBKey())
		if target.Fragment != "" {
			link.Href += "#" + url.PathEscape(strings.ReplaceAll(target.Fragment, " ", "_"))
		}
		key := target.PrefixedText()
		if !seen[key] {
			seen[key] = true
			links = append(links, key)
		}
		return gmast.WalkSkipChildren, nil
	})
	return links
}
