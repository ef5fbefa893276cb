// Package wiki runs the page save pipeline: parse, store, announce.
package wiki

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/hooks"
	"git.home.luguber.info/inful/autopage/internal/logfields"
	"git.home.luguber.info/inful/autopage/internal/metrics"
	"git.home.luguber.info/inful/autopage/internal/pagestore"
	"git.home.luguber.info/inful/autopage/internal/title"
	"git.home.luguber.info/inful/autopage/internal/wikitext"
)

// DefaultLinkBase prefixes the DB key of wiki link targets in rendered HTML.
const DefaultLinkBase = "/pages/"

// Options configures an Engine. Store is required.
type Options struct {
	Titles      *title.Parser
	Store       pagestore.Store
	Bus         *hooks.Bus
	Recorder    metrics.Recorder
	Logger      *slog.Logger
	LinkBase    string
	DefaultUser string
}

// Engine saves and renders pages. Every stored revision is announced as a
// RevisionCommitted event on the bus.
type Engine struct {
	titles      *title.Parser
	pp          *wikitext.Preprocessor
	store       pagestore.Store
	bus         *hooks.Bus
	recorder    metrics.Recorder
	logger      *slog.Logger
	defaultUser string
}

// New creates an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.ConfigError("wiki engine needs a page store").Build()
	}
	if opts.Titles == nil {
		opts.Titles = title.DefaultParser()
	}
	if opts.Bus == nil {
		opts.Bus = hooks.NewBus()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.LinkBase == "" {
		opts.LinkBase = DefaultLinkBase
	}
	if opts.DefaultUser == "" {
		opts.DefaultUser = "Autopage"
	}

	e := &Engine{
		titles:      opts.Titles,
		pp:          wikitext.New(opts.Titles, opts.LinkBase),
		store:       opts.Store,
		bus:         opts.Bus,
		recorder:    metrics.OrNoop(opts.Recorder),
		logger:      opts.Logger,
		defaultUser: opts.DefaultUser,
	}
	e.bus.Subscribe(hooks.EventPageAutoCreated, e.recordAutoCreated)
	return e, nil
}

func (e *Engine) Preprocessor() *wikitext.Preprocessor { return e.pp }
func (e *Engine) Bus() *hooks.Bus                      { return e.bus }
func (e *Engine) Titles() *title.Parser                { return e.titles }

// SaveRequest is one edit.
type SaveRequest struct {
	Title   string
	Content string
	User    string
	Summary string
}

// SaveResult describes a stored edit.
type SaveResult struct {
	Title    title.Title
	Revision *pagestore.Revision
	Output   *wikitext.Output
	NewPage  bool
	// AutoCreated lists the pages this save created through parser functions.
	AutoCreated []title.Title
}

// Save parses and stores a new revision of req.Title, creating the page if
// needed, then publishes RevisionCommitted. Handler failures are logged;
// they never undo or fail the save.
func (e *Engine) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	t, err := e.ResolveTitle(req.Title)
	if err != nil {
		return nil, err
	}
	return e.commit(ctx, t, req.Content, pagestore.CreateOptions{User: req.User, Summary: req.Summary}, false)
}

// Create stores the first revision of t through the same pipeline as Save.
// It returns pagestore.ErrPageExists when t already exists.
func (e *Engine) Create(ctx context.Context, t title.Title, content string, opts pagestore.CreateOptions) (*pagestore.Revision, error) {
	res, err := e.commit(ctx, t, content, opts, true)
	if err != nil {
		return nil, err
	}
	return res.Revision, nil
}

func (e *Engine) commit(ctx context.Context, t title.Title, content string, opts pagestore.CreateOptions, createOnly bool) (*SaveResult, error) {
	if !t.CanExist() {
		return nil, errors.TitleError("title cannot hold a page").WithContext("page", t.PrefixedText()).Build()
	}
	if opts.User == "" {
		opts.User = e.defaultUser
	}

	out, err := e.parse(ctx, t, content)
	if err != nil {
		return nil, err
	}

	var rev *pagestore.Revision
	if createOnly {
		rev, err = e.store.Create(ctx, t, content, opts)
	} else {
		rev, err = e.store.Save(ctx, t, content, opts)
	}
	if err != nil {
		return nil, err
	}
	e.recorder.IncRevisionSaved(rev.IsCreation())
	e.logger.InfoContext(ctx, "Saved revision",
		logfields.Page(t.PrefixedText()),
		logfields.RevisionID(rev.ID),
		logfields.User(opts.User))

	sink := &createdSink{source: t.PrefixedText()}
	event := &hooks.RevisionCommitted{
		Page:       t,
		RevisionID: rev.ID,
		User:       opts.User,
		NewPage:    rev.IsCreation(),
		Output:     out,
	}
	// The revision is stored; its hooks must run even if the caller goes away.
	hookCtx := context.WithoutCancel(context.WithValue(ctx, createdKey{}, sink))
	if err := e.bus.Publish(hookCtx, event); err != nil {
		e.logger.WarnContext(ctx, "RevisionCommitted handler failed",
			logfields.Page(t.PrefixedText()),
			logfields.RevisionID(rev.ID),
			logfields.Error(err))
	}

	return &SaveResult{
		Title:       t,
		Revision:    rev,
		Output:      out,
		NewPage:     rev.IsCreation(),
		AutoCreated: sink.titles(),
	}, nil
}

func (e *Engine) parse(ctx context.Context, t title.Title, content string) (*wikitext.Output, error) {
	start := time.Now()
	out, err := e.pp.Parse(ctx, t, content)
	e.recorder.ObserveRenderDuration(time.Since(start))
	return out, err
}

// Page is a rendered revision.
type Page struct {
	Title    title.Title
	Revision *pagestore.Revision
	Output   *wikitext.Output
}

// Render parses the current revision of titleText. Parser functions run as
// on save, but nothing they queue is created.
func (e *Engine) Render(ctx context.Context, titleText string) (*Page, error) {
	t, err := e.ResolveTitle(titleText)
	if err != nil {
		return nil, err
	}
	rev, err := e.store.Latest(ctx, t)
	if err != nil {
		return nil, err
	}
	out, err := e.parse(ctx, t, rev.Content)
	if err != nil {
		return nil, err
	}
	return &Page{Title: t, Revision: rev, Output: out}, nil
}

// History returns the revisions of titleText, newest first.
func (e *Engine) History(ctx context.Context, titleText string) (title.Title, []pagestore.Revision, error) {
	t, err := e.ResolveTitle(titleText)
	if err != nil {
		return title.Title{}, nil, err
	}
	revs, err := e.store.History(ctx, t)
	return t, revs, err
}

// ResolveTitle parses title text with the wiki's namespace table.
func (e *Engine) ResolveTitle(text string) (title.Title, error) {
	return e.titles.Parse(text)
}

// Exists reports whether t has a stored page.
func (e *Engine) Exists(ctx context.Context, t title.Title) (bool, error) {
	return e.store.Exists(ctx, t)
}

type createdKey struct{}

type createdSink struct {
	mu      sync.Mutex
	source  string
	created []title.Title
}

func (s *createdSink) add(t title.Title) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, t)
}

func (s *createdSink) titles() []title.Title {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]title.Title(nil), s.created...)
}

func (e *Engine) recordAutoCreated(ctx context.Context, ev hooks.Event) error {
	created, ok := ev.(*hooks.PageAutoCreated)
	if !ok {
		return nil
	}
	if sink, ok := ctx.Value(createdKey{}).(*createdSink); ok && sink.source == created.SourcePage() {
		sink.add(created.Page)
	}
	return nil
}
