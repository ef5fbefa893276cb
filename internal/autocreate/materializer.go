package autocreate

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"git.home.luguber.info/inful/autopage/internal/hooks"
	"git.home.luguber.info/inful/autopage/internal/i18n"
	"git.home.luguber.info/inful/autopage/internal/logfields"
	"git.home.luguber.info/inful/autopage/internal/metrics"
	"git.home.luguber.info/inful/autopage/internal/pagestore"
	"git.home.luguber.info/inful/autopage/internal/title"
	"git.home.luguber.info/inful/autopage/internal/wikitext"
)

// Commit identifies a stored revision and the parse output of its content.
type Commit struct {
	Source     title.Title
	RevisionID int64
	User       string
	Output     *wikitext.Output
}

// Skip is a queued page that was deliberately not created.
type Skip struct {
	Text   string
	Reason metrics.MaterializeOutcome
}

// Failure is a queued page whose creation failed.
type Failure struct {
	Text string
	Err  error
}

// Result reports what one Materialize call did with each queued page.
type Result struct {
	Created []title.Title
	Skipped []Skip
	Failed  []Failure
}

// Err joins the per-page failures, or returns nil.
func (r Result) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("create %q: %w", f.Text, f.Err))
	}
	return stderrors.Join(errs...)
}

// Materializer creates the pages queued on a committed revision's output.
type Materializer struct {
	opts      Options
	store     PageStore
	messages  Messages
	recorder  metrics.Recorder
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewMaterializer creates a Materializer that writes through store.
func NewMaterializer(store PageStore, opts Options, deps Deps) *Materializer {
	deps = deps.withDefaults()
	return &Materializer{
		opts:      opts,
		store:     store,
		messages:  deps.Messages,
		recorder:  deps.Recorder,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// Materialize drains commit.Output.PendingPages and creates every queued
// page that resolves to a creatable, not yet existing title. Pages are
// visited in title order. A failing page does not stop the others; see
// Result.Err. Once the queue is drained every entry is processed, even if
// ctx is canceled: the originating revision is already stored.
func (m *Materializer) Materialize(ctx context.Context, commit Commit) Result {
	var res Result
	if commit.Output == nil {
		return res
	}
	pending := commit.Output.TakePendingPages()
	if pending == nil {
		return res
	}
	ctx = context.WithoutCancel(ctx)

	start := m.now()
	defer func() { m.recorder.ObserveMaterializeDuration(m.now().Sub(start)) }()

	budget := BudgetFromContext(ctx, m.opts.MaxRecursion)
	child := WithBudget(ctx, budget-1)

	source := commit.Source.PrefixedText()
	user := commit.User
	if user == "" {
		user = m.opts.DefaultUser
	}
	opts := pagestore.CreateOptions{
		User:      user,
		Summary:   m.messages.Message(i18n.MsgSummary, source),
		Patrolled: true,
	}

	texts := make([]string, 0, len(pending))
	for text := range pending {
		texts = append(texts, text)
	}
	sort.Strings(texts)

	for _, text := range texts {
		m.materializeOne(ctx, child, commit, text, pending[text], opts, &res)
	}
	return res
}

func (m *Materializer) materializeOne(ctx, child context.Context, commit Commit, text, content string, opts pagestore.CreateOptions, res *Result) {
	source := commit.Source.PrefixedText()
	skip := func(reason metrics.MaterializeOutcome) {
		m.recorder.IncMaterialize(reason)
		res.Skipped = append(res.Skipped, Skip{Text: text, Reason: reason})
		m.logger.DebugContext(ctx, "Skipping queued page",
			logfields.SourcePage(source), logfields.TargetTitle(text), slog.String("reason", string(reason)))
	}
	fail := func(err error) {
		m.recorder.IncMaterialize(metrics.MaterializeFailed)
		res.Failed = append(res.Failed, Failure{Text: text, Err: err})
		m.logger.WarnContext(ctx, "Failed to create queued page",
			logfields.SourcePage(source), logfields.TargetTitle(text), logfields.Error(err))
	}

	t, err := m.store.ResolveTitle(text)
	if err != nil {
		skip(metrics.MaterializeInvalidTitle)
		return
	}
	if !t.CanExist() {
		skip(metrics.MaterializeCannotExist)
		return
	}
	exists, err := m.store.Exists(ctx, t)
	if err != nil {
		fail(err)
		return
	}
	if exists {
		skip(metrics.MaterializeAlreadyExists)
		return
	}

	rev, err := m.store.Create(child, t, content, opts)
	switch {
	case stderrors.Is(err, pagestore.ErrPageExists):
		skip(metrics.MaterializeAlreadyExists)
		return
	case err != nil:
		fail(err)
		return
	}

	m.recorder.IncMaterialize(metrics.MaterializeCreated)
	res.Created = append(res.Created, t)
	m.logger.InfoContext(ctx, "Created page",
		logfields.SourcePage(source), logfields.Page(t.PrefixedText()),
		logfields.RevisionID(rev.ID), logfields.User(opts.User))

	if m.publisher == nil {
		return
	}
	event := &hooks.PageAutoCreated{
		Source:     commit.Source,
		Page:       t,
		RevisionID: rev.ID,
		User:       opts.User,
		Timestamp:  rev.Timestamp,
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.WarnContext(ctx, "PageAutoCreated handler failed",
			logfields.Page(t.PrefixedText()), logfields.Error(err))
	}
}

// HandleRevisionCommitted is the hooks.Handler for RevisionCommitted events.
// It never fails the save that published the event.
func (m *Materializer) HandleRevisionCommitted(ctx context.Context, e hooks.Event) error {
	rc, ok := e.(*hooks.RevisionCommitted)
	if !ok {
		return nil
	}
	res := m.Materialize(ctx, Commit{
		Source:     rc.Page,
		RevisionID: rc.RevisionID,
		User:       rc.User,
		Output:     rc.Output,
	})
	if len(res.Created)+len(res.Skipped)+len(res.Failed) > 0 {
		m.logger.InfoContext(ctx, "Processed queued pages",
			logfields.SourcePage(rc.Page.PrefixedText()),
			logfields.RevisionID(rc.RevisionID),
			slog.Int("created", len(res.Created)),
			slog.Int("skipped", len(res.Skipped)),
			slog.Int("failed", len(res.Failed)))
	}
	return nil
}
