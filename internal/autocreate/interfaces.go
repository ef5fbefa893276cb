package autocreate

import (
	"context"

	"git.home.luguber.info/inful/autopage/internal/hooks"
	"git.home.luguber.info/inful/autopage/internal/pagestore"
	"git.home.luguber.info/inful/autopage/internal/title"
	"git.home.luguber.info/inful/autopage/internal/wikitext"
)

// ParserContext is the view of the page being parsed. *wikitext.Frame
// implements it.
type ParserContext interface {
	Title() title.Title
	Namespace() title.Namespace
	UnstripNoWiki(s string) string
	Output() *wikitext.Output
}

// PageStore resolves titles and creates pages. Create must run the host's
// full save pipeline with ctx, so the page's own content is parsed under
// the budget ctx carries.
type PageStore interface {
	ResolveTitle(text string) (title.Title, error)
	Exists(ctx context.Context, t title.Title) (bool, error)
	Create(ctx context.Context, t title.Title, content string, opts pagestore.CreateOptions) (*pagestore.Revision, error)
}

// RevisionCommitNotifier delivers RevisionCommitted events. *hooks.Bus implements it.
type RevisionCommitNotifier interface {
	Subscribe(event string, h hooks.Handler)
}

// FunctionRegistry accepts parser functions. *wikitext.Preprocessor implements it.
type FunctionRegistry interface {
	Register(name string, fn wikitext.Func) error
}

// Publisher announces pages created by the Materializer.
type Publisher interface {
	Publish(ctx context.Context, e hooks.Event) error
}

var (
	_ ParserContext          = (*wikitext.Frame)(nil)
	_ RevisionCommitNotifier = (*hooks.Bus)(nil)
	_ FunctionRegistry       = (*wikitext.Preprocessor)(nil)
	_ Publisher              = (*hooks.Bus)(nil)
)
