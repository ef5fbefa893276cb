package wikitext

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/title"
)

func newTestPreprocessor(t *testing.T) *Preprocessor {
	t.Helper()
	p := New(title.DefaultParser(), "/pages/")
	require.NoError(t, p.Register("echo", func(_ context.Context, _ *Frame, args []string) (string, error) {
		return strings.Join(args, ","), nil
	}))
	return p
}

func mainTitle(t *testing.T, text string) title.Title {
	t.Helper()
	tt, err := title.DefaultParser().Parse(text)
	require.NoError(t, err)
	return tt
}

func TestParseRendersMarkdown(t *testing.T) {
	p := newTestPreprocessor(t)
	out, err := p.Parse(t.Context(), mainTitle(t, "Home"), "# Welcome\n\nSome *text*.")
	require.NoError(t, err)
	require.Contains(t, out.HTML, "<h1>Welcome</h1>")
	require.Contains(t, out.HTML, "<em>text</em>")
	require.Nil(t, out.PendingPages)
}

func TestParserFunctions(t *testing.T) {
	p := newTestPreprocessor(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "{{#echo:a|b}}", "a,b"},
		{"case insensitive", "{{#ECHO: x }}", "x"},
		{"nested arguments expand first", "{{#echo:{{#echo:a|b}}|c}}", "a,b,c"},
		{"wiki link pipes stay in argument", "{{#echo:[[A|label]]|z}}", "[[A|label]],z"},
		{"unknown function kept", "{{#nope:x}}", "{{#nope:x}}"},
		{"template syntax kept", "{{Infobox|a=1}}", "{{Infobox|a=1}}"},
		{"unbalanced opener", "{{ {{#echo:a}}", "{{ a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := p.Parse(t.Context(), mainTitle(t, "Home"), tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, out.Text)
		})
	}
}

func TestNoWikiShieldsExpansion(t *testing.T) {
	p := newTestPreprocessor(t)
	out, err := p.Parse(t.Context(), mainTitle(t, "Home"), "a <nowiki>{{#echo:x}} <b>y</b></nowiki> b")
	require.NoError(t, err)
	require.Equal(t, "a {{#echo:x}} <b>y</b> b", out.Text)
	require.Contains(t, out.HTML, "{{#echo:x}} &lt;b&gt;y&lt;/b&gt;")
	require.NotContains(t, out.HTML, "UNIQ")
}

func TestFrameUnstripsArguments(t *testing.T) {
	p := New(title.DefaultParser(), "/pages/")
	var got string
	var ns title.Namespace
	require.NoError(t, p.Register("capture", func(_ context.Context, f *Frame, args []string) (string, error) {
		require.Contains(t, args[0], "UNIQ-nowiki-")
		got = f.UnstripNoWiki(args[0])
		ns = f.Namespace()
		f.Output().AddPendingPage("X", got)
		return "", nil
	}))

	out, err := p.Parse(t.Context(), mainTitle(t, "Help:Start"), "{{#capture:<nowiki>{{#capture:inner}}</nowiki>}}")
	require.NoError(t, err)
	require.Equal(t, "{{#capture:inner}}", got)
	require.Equal(t, title.NamespaceHelp, ns)
	require.Equal(t, map[string]string{"X": "{{#capture:inner}}"}, out.PendingPages)
}

func TestFunctionErrorAbortsParse(t *testing.T) {
	p := New(title.DefaultParser(), "/pages/")
	boom := errors.New("boom")
	require.NoError(t, p.Register("fail", func(context.Context, *Frame, []string) (string, error) {
		return "", boom
	}))

	_, err := p.Parse(t.Context(), mainTitle(t, "Home"), "{{#fail:x}}")
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.True(t, derrors.HasCategory(err, derrors.CategoryParse))
}

func TestExpansionDepthLimit(t *testing.T) {
	p := newTestPreprocessor(t)
	src := strings.Repeat("{{#echo:", 45) + "x" + strings.Repeat("}}", 45)
	_, err := p.Parse(t.Context(), mainTitle(t, "Home"), src)
	require.ErrorIs(t, err, ErrExpansionDepth)
}

func TestWikiLinks(t *testing.T) {
	p := newTestPreprocessor(t)
	out, err := p.Parse(t.Context(), mainTitle(t, "Home"),
		"See [[help page|the help]], [[Help:Foo#Bar baz]] and [[help page]]. Broken: [[A{b]].")
	require.NoError(t, err)
	require.Equal(t, []string{"Help page", "Help:Foo"}, out.Links)
	require.Contains(t, out.HTML, `<a href="/pages/Help_page">the help</a>`)
	require.Contains(t, out.HTML, `href="/pages/Help:Foo#Bar_baz"`)
	require.Contains(t, out.HTML, "[[A{b]]")
}

func TestWikiLinksInCodeStayLiteral(t *testing.T) {
	p := newTestPreprocessor(t)
	src := "Use `[[Foo]]` syntax.\n\n```\n[[Bar|label]]\n```\n\n    [[Baz]]\n\nReal [[Qux]] link.\n"
	out, err := p.Parse(t.Context(), mainTitle(t, "Home"), src)
	require.NoError(t, err)

	require.Equal(t, []string{"Qux"}, out.Links)
	require.Contains(t, out.HTML, "<code>[[Foo]]</code>")
	require.Contains(t, out.HTML, "[[Bar|label]]\n</code></pre>")
	require.Contains(t, out.HTML, "[[Baz]]\n</code></pre>")
	require.Contains(t, out.HTML, `<a href="/pages/Qux">Qux</a>`)
	require.NotContains(t, out.HTML, "/pages/Foo")
	require.NotContains(t, out.HTML, "/pages/Bar")
}

func TestWikiLinksLeaveMarkdownLinksAlone(t *testing.T) {
	p := newTestPreprocessor(t)
	out, err := p.Parse(t.Context(), mainTitle(t, "Home"), "[docs](https://example.org) and [[Help]]")
	require.NoError(t, err)
	require.Equal(t, []string{"Help"}, out.Links)
	require.Contains(t, out.HTML, `<a href="https://example.org">docs</a>`)
	require.Contains(t, out.HTML, `<a href="/pages/Help">Help</a>`)
}

func TestRegister(t *testing.T) {
	p := newTestPreprocessor(t)
	err := p.Register("ECHO", func(context.Context, *Frame, []string) (string, error) { return "", nil })
	require.True(t, derrors.HasCategory(err, derrors.CategoryAlreadyExists))

	err = p.Register("bad:name", func(context.Context, *Frame, []string) (string, error) { return "", nil })
	require.True(t, derrors.HasCategory(err, derrors.CategoryValidation))

	require.Equal(t, []string{"echo"}, p.Functions())
}

func TestOutputPendingPages(t *testing.T) {
	var out Output
	out.AddPendingPage("Help", "one")
	out.AddPendingPage("Help", "two")
	out.AddPendingPage("Other", "x")

	taken := out.TakePendingPages()
	require.Equal(t, map[string]string{"Help": "two", "Other": "x"}, taken)
	require.Nil(t, out.PendingPages)
	require.Nil(t, out.TakePendingPages())
}
