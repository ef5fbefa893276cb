package wiki

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/autopage/internal/autocreate"
	"git.home.luguber.info/inful/autopage/internal/eventstore"
	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/hooks"
	"git.home.luguber.info/inful/autopage/internal/i18n"
	"git.home.luguber.info/inful/autopage/internal/metrics"
	"git.home.luguber.info/inful/autopage/internal/pagestore"
	"git.home.luguber.info/inful/autopage/internal/title"
)

type testWiki struct {
	engine   *Engine
	store    *pagestore.MemoryStore
	events   *eventstore.SQLiteStore
	recorder *metrics.MemoryRecorder
}

func newTestWiki(t *testing.T, opts autocreate.Options) *testWiki {
	t.Helper()
	events, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = events.Close() })

	store := pagestore.NewMemoryStore()
	rec := metrics.NewMemoryRecorder()
	bus := hooks.NewBusWithEventStore(events)
	engine, err := New(Options{Store: store, Bus: bus, Recorder: rec})
	require.NoError(t, err)

	ext := autocreate.New(engine, opts, autocreate.Deps{
		Messages:  i18n.New("en"),
		Recorder:  rec,
		Publisher: bus,
	})
	require.NoError(t, ext.Install(engine.Preprocessor(), bus))
	return &testWiki{engine: engine, store: store, events: events, recorder: rec}
}

func (w *testWiki) latest(t *testing.T, page string) *pagestore.Revision {
	t.Helper()
	tt, err := w.engine.ResolveTitle(page)
	require.NoError(t, err)
	rev, err := w.store.Latest(context.Background(), tt)
	require.NoError(t, err)
	return rev
}

func (w *testWiki) exists(t *testing.T, page string) bool {
	t.Helper()
	tt, err := w.engine.ResolveTitle(page)
	require.NoError(t, err)
	ok, err := w.engine.Exists(context.Background(), tt)
	require.NoError(t, err)
	return ok
}

func TestSave_HomeCreatesHelp(t *testing.T) {
	w := newTestWiki(t, autocreate.DefaultOptions())
	ctx := t.Context()

	res, err := w.engine.Save(ctx, SaveRequest{Title: "Home", Content: "Start {{#createpage:Help|Hello}}", User: "alice"})
	require.NoError(t, err)
	require.True(t, res.NewPage)
	require.Len(t, res.AutoCreated, 1)
	require.Equal(t, "Help", res.AutoCreated[0].PrefixedText())
	require.Nil(t, res.Output.PendingPages)

	help := w.latest(t, "Help")
	require.Equal(t, "Hello", help.Content)
	require.Equal(t, "alice", help.User)
	require.True(t, help.Patrolled)
	require.Equal(t, "Page created automatically by parser function on page [[Home]]", help.Summary)

	res, err = w.engine.Save(ctx, SaveRequest{Title: "Home", Content: "Start {{#createpage:Help|Changed}}", User: "bob"})
	require.NoError(t, err)
	require.False(t, res.NewPage)
	require.Empty(t, res.AutoCreated)
	require.Equal(t, "Hello", w.latest(t, "Help").Content)

	saved, created := w.recorder.Saved()
	require.Equal(t, 3, saved)
	require.Equal(t, 2, created)
	require.Equal(t, 1, w.recorder.Materialize(metrics.MaterializeCreated))
	require.Equal(t, 1, w.recorder.Materialize(metrics.MaterializeAlreadyExists))
}

func TestSave_RecursionContainment(t *testing.T) {
	w := newTestWiki(t, autocreate.DefaultOptions())

	src := "{{#createpage:B|Page B <nowiki>{{#createpage:C|Page C}}</nowiki>}}"
	res, err := w.engine.Save(t.Context(), SaveRequest{Title: "A", Content: src})
	require.NoError(t, err)
	require.Len(t, res.AutoCreated, 1)

	require.Equal(t, "Page B {{#createpage:C|Page C}}", w.latest(t, "B").Content)
	require.False(t, w.exists(t, "C"))
	require.Equal(t, 1, w.recorder.Collect(metrics.CollectRecursionExceeded))

	page, err := w.engine.Render(t.Context(), "B")
	require.NoError(t, err)
	require.Equal(t, "Page B ", page.Output.Text)
}

func TestSave_DeeperBudgetAllowsChains(t *testing.T) {
	opts := autocreate.DefaultOptions()
	opts.MaxRecursion = 2
	w := newTestWiki(t, opts)

	src := "{{#createpage:B|<nowiki>{{#createpage:C|Page C}}</nowiki>}}"
	_, err := w.engine.Save(t.Context(), SaveRequest{Title: "A", Content: src})
	require.NoError(t, err)

	require.True(t, w.exists(t, "B"))
	require.True(t, w.exists(t, "C"))
	require.Equal(t, "Page C", w.latest(t, "C").Content)
	require.Zero(t, w.recorder.Collect(metrics.CollectRecursionExceeded))

	c := w.latest(t, "C")
	require.Equal(t, "Page created automatically by parser function on page [[B]]", c.Summary)
}

func TestSave_OutOfNamespaceQueuesNothing(t *testing.T) {
	w := newTestWiki(t, autocreate.DefaultOptions())

	res, err := w.engine.Save(t.Context(), SaveRequest{Title: "Talk:Home", Content: "{{#createpage:Help|Hello}}"})
	require.NoError(t, err)
	require.Empty(t, res.AutoCreated)
	require.False(t, w.exists(t, "Help"))
}

func TestSave_InlineMessagesAreStoredAsSource(t *testing.T) {
	w := newTestWiki(t, autocreate.DefaultOptions())

	res, err := w.engine.Save(t.Context(), SaveRequest{Title: "Home", Content: "{{#createpage:|Hello}}"})
	require.NoError(t, err)
	require.Contains(t, res.Output.Text, "valid title text")
	require.Equal(t, "{{#createpage:|Hello}}", w.latest(t, "Home").Content)
}

func TestSave_MissingArgumentsRejectsSave(t *testing.T) {
	w := newTestWiki(t, autocreate.DefaultOptions())

	_, err := w.engine.Save(t.Context(), SaveRequest{Title: "Home", Content: "{{#createpage:Help}}"})
	require.ErrorIs(t, err, autocreate.ErrMissingArguments)
	require.False(t, w.exists(t, "Home"))
}

func TestSave_InvalidTitles(t *testing.T) {
	w := newTestWiki(t, autocreate.DefaultOptions())

	_, err := w.engine.Save(t.Context(), SaveRequest{Title: "Bad|Title", Content: "x"})
	require.ErrorIs(t, err, title.ErrInvalidTitle)

	_, err = w.engine.Save(t.Context(), SaveRequest{Title: "Special:Search", Content: "x"})
	require.True(t, errors.HasCategory(err, errors.CategoryTitle))
}

func TestSave_DefaultUser(t *testing.T) {
	w := newTestWiki(t, autocreate.DefaultOptions())

	_, err := w.engine.Save(t.Context(), SaveRequest{Title: "Home", Content: "x"})
	require.NoError(t, err)
	require.Equal(t, "Autopage", w.latest(t, "Home").User)
}

func TestCreate_DoesNotOverwrite(t *testing.T) {
	w := newTestWiki(t, autocreate.DefaultOptions())
	ctx := t.Context()
	help, err := w.engine.ResolveTitle("Help")
	require.NoError(t, err)

	_, err = w.engine.Create(ctx, help, "first", pagestore.CreateOptions{})
	require.NoError(t, err)
	_, err = w.engine.Create(ctx, help, "second", pagestore.CreateOptions{})
	require.ErrorIs(t, err, pagestore.ErrPageExists)
	require.Equal(t, "first", w.latest(t, "Help").Content)
}

func TestSave_AuditTrail(t *testing.T) {
	w := newTestWiki(t, autocreate.DefaultOptions())
	ctx := t.Context()

	_, err := w.engine.Save(ctx, SaveRequest{Title: "Home", Content: "{{#createpage:Help|Hello}}", User: "alice"})
	require.NoError(t, err)

	events, err := w.events.GetBySource(ctx, "Home")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, eventstore.TypeRevisionCommitted, events[0].Type())
	require.Equal(t, eventstore.TypePageAutoCreated, events[1].Type())

	committed, err := eventstore.DecodePayload[eventstore.RevisionCommittedPayload](events[0])
	require.NoError(t, err)
	require.Equal(t, []string{"Help"}, committed.Pending)
	require.True(t, committed.NewPage)

	created, err := eventstore.DecodePayload[eventstore.PageAutoCreatedPayload](events[1])
	require.NoError(t, err)
	require.Equal(t, "Help", created.Title)
	require.Equal(t, "alice", created.User)

	helpEvents, err := w.events.GetBySource(ctx, "Help")
	require.NoError(t, err)
	require.Len(t, helpEvents, 1)
}

func TestRenderAndHistory(t *testing.T) {
	w := newTestWiki(t, autocreate.DefaultOptions())
	ctx := t.Context()

	_, err := w.engine.Save(ctx, SaveRequest{Title: "Home", Content: "# Welcome\n\nSee [[help|the help]].", User: "alice"})
	require.NoError(t, err)
	_, err = w.engine.Save(ctx, SaveRequest{Title: "home", Content: "# Welcome back", User: "bob", Summary: "shorter"})
	require.NoError(t, err)

	page, err := w.engine.Render(ctx, "Home")
	require.NoError(t, err)
	require.Contains(t, page.Output.HTML, "<h1>Welcome back</h1>")
	require.Equal(t, "bob", page.Revision.User)

	tt, revs, err := w.engine.History(ctx, "Home")
	require.NoError(t, err)
	require.Equal(t, "Home", tt.PrefixedText())
	require.Len(t, revs, 2)
	require.Equal(t, "shorter", revs[0].Summary)

	_, err = w.engine.Render(ctx, "Missing")
	require.ErrorIs(t, err, pagestore.ErrPageNotFound)
	require.Equal(t, 3, w.recorder.Renders())
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Options{})
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

// cancelAfterSave cancels the request context right after the first page
// revision is stored, like a client that disconnects mid-request.
type cancelAfterSave struct {
	*pagestore.MemoryStore
	cancel context.CancelFunc
}

func (s *cancelAfterSave) Save(ctx context.Context, t title.Title, content string, opts pagestore.CreateOptions) (*pagestore.Revision, error) {
	rev, err := s.MemoryStore.Save(ctx, t, content, opts)
	s.cancel()
	return rev, err
}

func TestSave_CreatesQueuedPagesAfterCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	store := &cancelAfterSave{MemoryStore: pagestore.NewMemoryStore(), cancel: cancel}
	bus := hooks.NewBus()
	engine, err := New(Options{Store: store, Bus: bus})
	require.NoError(t, err)
	ext := autocreate.New(engine, autocreate.DefaultOptions(), autocreate.Deps{Publisher: bus})
	require.NoError(t, ext.Install(engine.Preprocessor(), bus))

	res, err := engine.Save(ctx, SaveRequest{Title: "Home", Content: "{{#createpage:Help|Hello}}"})
	require.NoError(t, err)
	require.ErrorIs(t, ctx.Err(), context.Canceled)
	require.Len(t, res.AutoCreated, 1)
	require.Equal(t, "Help", res.AutoCreated[0].PrefixedText())

	help, err := store.Latest(context.Background(), res.AutoCreated[0])
	require.NoError(t, err)
	require.Equal(t, "Hello", help.Content)
}
