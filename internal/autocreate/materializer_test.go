package autocreate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/autopage/internal/hooks"
	"git.home.luguber.info/inful/autopage/internal/i18n"
	"git.home.luguber.info/inful/autopage/internal/metrics"
	"git.home.luguber.info/inful/autopage/internal/pagestore"
	"git.home.luguber.info/inful/autopage/internal/title"
	"git.home.luguber.info/inful/autopage/internal/wikitext"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []hooks.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e hooks.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func commitWith(t *testing.T, source string, pending map[string]string) Commit {
	t.Helper()
	out := &wikitext.Output{}
	for k, v := range pending {
		out.AddPendingPage(k, v)
	}
	return Commit{Source: mustTitle(t, source), RevisionID: 1, User: "alice", Output: out}
}

func TestMaterialize_CreatesMissingPages(t *testing.T) {
	store := newFakeStore()
	pub := &recordingPublisher{}
	rec := metrics.NewMemoryRecorder()
	m := NewMaterializer(store, DefaultOptions(), Deps{Messages: english, Recorder: rec, Publisher: pub})

	commit := commitWith(t, "Home", map[string]string{"Help": "Hello", "About": "About us"})
	res := m.Materialize(context.Background(), commit)
	require.NoError(t, res.Err())
	require.Len(t, res.Created, 2)
	require.Equal(t, "About", res.Created[0].PrefixedText())
	require.Equal(t, "Help", res.Created[1].PrefixedText())

	rev, err := store.Latest(context.Background(), mustTitle(t, "Help"))
	require.NoError(t, err)
	require.Equal(t, "Hello", rev.Content)
	require.Equal(t, "alice", rev.User)
	require.True(t, rev.Patrolled)
	require.Equal(t, english.Message(i18n.MsgSummary, "Home"), rev.Summary)
	require.Contains(t, rev.Summary, "[[Home]]")

	require.Nil(t, commit.Output.PendingPages)
	require.Equal(t, 2, rec.Materialize(metrics.MaterializeCreated))
	require.Equal(t, 1, rec.MaterializeRuns())

	require.Len(t, pub.events, 2)
	created, ok := pub.events[1].(*hooks.PageAutoCreated)
	require.True(t, ok)
	require.Equal(t, "Home", created.Source.PrefixedText())
	require.Equal(t, "Help", created.Page.PrefixedText())
	require.Equal(t, rev.ID, created.RevisionID)
}

func TestMaterialize_NoPendingIsNoop(t *testing.T) {
	store := newFakeStore()
	rec := metrics.NewMemoryRecorder()
	m := NewMaterializer(store, DefaultOptions(), testDeps(rec))

	res := m.Materialize(context.Background(), Commit{Source: mustTitle(t, "Home"), Output: &wikitext.Output{}})
	require.Empty(t, res.Created)

	res = m.Materialize(context.Background(), Commit{Source: mustTitle(t, "Home")})
	require.Empty(t, res.Created)

	require.Zero(t, store.Calls().Exists)
	require.Zero(t, rec.MaterializeRuns())
}

func TestMaterialize_SecondRunOnDrainedOutputIsNoop(t *testing.T) {
	store := newFakeStore()
	m := NewMaterializer(store, DefaultOptions(), Deps{})
	commit := commitWith(t, "Home", map[string]string{"Help": "Hello"})

	res := m.Materialize(context.Background(), commit)
	require.Len(t, res.Created, 1)
	calls := store.Calls()

	res = m.Materialize(context.Background(), commit)
	require.Empty(t, res.Created)
	require.Empty(t, res.Skipped)
	require.Equal(t, calls, store.Calls())
}

func TestMaterialize_NeverClobbersExistingPages(t *testing.T) {
	store := newFakeStore()
	_, err := store.MemoryStore.Create(context.Background(), mustTitle(t, "Help"), "original", pagestore.CreateOptions{User: "bob"})
	require.NoError(t, err)

	rec := metrics.NewMemoryRecorder()
	m := NewMaterializer(store, DefaultOptions(), testDeps(rec))
	res := m.Materialize(context.Background(), commitWith(t, "Home", map[string]string{"help": "replacement"}))
	require.Empty(t, res.Created)
	require.Equal(t, []Skip{{Text: "help", Reason: metrics.MaterializeAlreadyExists}}, res.Skipped)

	require.Equal(t, "original", store.content(t, "Help"))
	hist, err := store.History(context.Background(), mustTitle(t, "Help"))
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Equal(t, 1, rec.Materialize(metrics.MaterializeAlreadyExists))
}

// racingStore reports that pages do not exist, then loses the creation race.
type racingStore struct{ *fakeStore }

func (r racingStore) Exists(context.Context, title.Title) (bool, error) { return false, nil }

func TestMaterialize_LostCreateRaceCountsAsExisting(t *testing.T) {
	inner := newFakeStore()
	_, err := inner.MemoryStore.Create(context.Background(), mustTitle(t, "Help"), "original", pagestore.CreateOptions{})
	require.NoError(t, err)

	m := NewMaterializer(racingStore{inner}, DefaultOptions(), Deps{})
	res := m.Materialize(context.Background(), commitWith(t, "Home", map[string]string{"Help": "new"}))
	require.NoError(t, res.Err())
	require.Equal(t, []Skip{{Text: "Help", Reason: metrics.MaterializeAlreadyExists}}, res.Skipped)
	require.Equal(t, "original", inner.content(t, "Help"))
}

func TestMaterialize_SkipsInvalidAndUncreatableTitles(t *testing.T) {
	store := newFakeStore()
	m := NewMaterializer(store, DefaultOptions(), Deps{})

	res := m.Materialize(context.Background(), commitWith(t, "Home", map[string]string{
		"Bad[title]":     "x",
		"Special:Search": "x",
		"Good":           "x",
	}))
	require.Len(t, res.Created, 1)
	require.ElementsMatch(t, []Skip{
		{Text: "Bad[title]", Reason: metrics.MaterializeInvalidTitle},
		{Text: "Special:Search", Reason: metrics.MaterializeCannotExist},
	}, res.Skipped)
	require.Equal(t, 1, store.Len())
}

func TestMaterialize_FailureDoesNotStopRemainingPages(t *testing.T) {
	store := newFakeStore()
	boom := errors.New("permission denied")
	store.FailWrites(mustTitle(t, "Beta"), boom)

	rec := metrics.NewMemoryRecorder()
	m := NewMaterializer(store, DefaultOptions(), testDeps(rec))
	res := m.Materialize(context.Background(), commitWith(t, "Home", map[string]string{
		"Alpha": "a", "Beta": "b", "Gamma": "c",
	}))
	require.Len(t, res.Created, 2)
	require.Len(t, res.Failed, 1)
	require.Equal(t, "Beta", res.Failed[0].Text)
	require.ErrorIs(t, res.Err(), boom)
	require.Equal(t, 1, rec.Materialize(metrics.MaterializeFailed))
	require.Equal(t, 2, store.Len())
}

func TestMaterialize_HandsDecrementedBudgetToCreations(t *testing.T) {
	for _, budget := range []int{1, 3} {
		t.Run(fmt.Sprintf("budget=%d", budget), func(t *testing.T) {
			store := newFakeStore()
			m := NewMaterializer(store, DefaultOptions(), Deps{})
			ctx := WithBudget(context.Background(), budget)

			m.Materialize(ctx, commitWith(t, "Home", map[string]string{"A": "a", "B": "b"}))
			require.Equal(t, []int{budget - 1, budget - 1}, store.budgets)
			require.Equal(t, budget, BudgetFromContext(ctx, -1))
		})
	}
}

func TestMaterialize_DefaultBudgetComesFromOptions(t *testing.T) {
	store := newFakeStore()
	opts := DefaultOptions()
	opts.MaxRecursion = 2
	m := NewMaterializer(store, opts, Deps{})

	m.Materialize(context.Background(), commitWith(t, "Home", map[string]string{"A": "a"}))
	require.Equal(t, []int{1}, store.budgets)
}

func TestMaterialize_DefaultUser(t *testing.T) {
	store := newFakeStore()
	m := NewMaterializer(store, DefaultOptions(), Deps{})
	commit := commitWith(t, "Home", map[string]string{"Help": "x"})
	commit.User = ""

	m.Materialize(context.Background(), commit)
	rev, err := store.Latest(context.Background(), mustTitle(t, "Help"))
	require.NoError(t, err)
	require.Equal(t, "Autopage", rev.User)
}

func TestMaterialize_FinishesDrainedQueueAfterCancel(t *testing.T) {
	store := newFakeStore()
	m := NewMaterializer(store, DefaultOptions(), Deps{})
	ctx, cancel := context.WithCancel(WithBudget(context.Background(), 2))
	cancel()

	commit := commitWith(t, "Home", map[string]string{"Help": "x", "About": "y"})
	res := m.Materialize(ctx, commit)
	require.NoError(t, res.Err())
	require.Len(t, res.Created, 2)
	require.Equal(t, 2, store.Len())
	require.Equal(t, []int{1, 1}, store.budgets)
	require.Nil(t, commit.Output.TakePendingPages())
}

func TestHandleRevisionCommitted(t *testing.T) {
	store := newFakeStore()
	m := NewMaterializer(store, DefaultOptions(), Deps{})
	out := &wikitext.Output{}
	out.AddPendingPage("Help", "Hello")

	err := m.HandleRevisionCommitted(context.Background(), &hooks.RevisionCommitted{
		Page: mustTitle(t, "Home"), RevisionID: 4, User: "alice", Output: out,
	})
	require.NoError(t, err)
	require.Equal(t, "Hello", store.content(t, "Help"))

	require.NoError(t, m.HandleRevisionCommitted(context.Background(), &hooks.PageAutoCreated{}))
}
