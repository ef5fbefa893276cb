package autocreate

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/autopage/internal/i18n"
	"git.home.luguber.info/inful/autopage/internal/metrics"
	"git.home.luguber.info/inful/autopage/internal/pagestore"
	"git.home.luguber.info/inful/autopage/internal/title"
	"git.home.luguber.info/inful/autopage/internal/wikitext"
)

var english = i18n.New("en")

// fakeContext is a ParserContext for a page that is being parsed.
type fakeContext struct {
	title  title.Title
	output *wikitext.Output
	nowiki map[string]string // marker -> literal text
}

func newFakeContext(t *testing.T, page string) *fakeContext {
	t.Helper()
	return &fakeContext{title: mustTitle(t, page), output: &wikitext.Output{}}
}

func (f *fakeContext) Title() title.Title         { return f.title }
func (f *fakeContext) Namespace() title.Namespace { return f.title.Namespace }
func (f *fakeContext) Output() *wikitext.Output   { return f.output }
func (f *fakeContext) UnstripNoWiki(s string) string {
	for marker, literal := range f.nowiki {
		s = strings.ReplaceAll(s, marker, literal)
	}
	return s
}

// fakeStore is a PageStore over an in-memory page store that remembers the
// budget each creation ran with.
type fakeStore struct {
	*pagestore.MemoryStore
	titles   *title.Parser
	budgets  []int
	onCreate func(ctx context.Context, t title.Title, content string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{MemoryStore: pagestore.NewMemoryStore(), titles: title.DefaultParser()}
}

func (f *fakeStore) ResolveTitle(text string) (title.Title, error) { return f.titles.Parse(text) }

func (f *fakeStore) Create(ctx context.Context, t title.Title, content string, opts pagestore.CreateOptions) (*pagestore.Revision, error) {
	f.budgets = append(f.budgets, BudgetFromContext(ctx, -1))
	rev, err := f.MemoryStore.Create(ctx, t, content, opts)
	if err == nil && f.onCreate != nil {
		f.onCreate(ctx, t, content)
	}
	return rev, err
}

func (f *fakeStore) content(t *testing.T, page string) string {
	t.Helper()
	rev, err := f.Latest(context.Background(), mustTitle(t, page))
	require.NoError(t, err)
	return rev.Content
}

func mustTitle(t *testing.T, text string) title.Title {
	t.Helper()
	tt, err := title.DefaultParser().Parse(text)
	require.NoError(t, err)
	return tt
}

func testDeps(rec *metrics.MemoryRecorder) Deps {
	return Deps{Messages: english, Recorder: rec}
}
