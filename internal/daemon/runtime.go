package daemon

import (
	"context"
	stderrors "errors"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/autopage/internal/autocreate"
	"git.home.luguber.info/inful/autopage/internal/config"
	"git.home.luguber.info/inful/autopage/internal/eventstore"
	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/hooks"
	"git.home.luguber.info/inful/autopage/internal/i18n"
	"git.home.luguber.info/inful/autopage/internal/metrics"
	"git.home.luguber.info/inful/autopage/internal/pagestore"
	"git.home.luguber.info/inful/autopage/internal/title"
	"git.home.luguber.info/inful/autopage/internal/wiki"
)

// Runtime is the wired wiki: stores, event bus, engine and the installed
// auto-creation extension. CLI commands use it directly; the daemon adds
// the long-running surfaces on top.
type Runtime struct {
	Config     *config.Config
	Pages      pagestore.Store
	Events     *eventstore.SQLiteStore
	Bus        *hooks.Bus
	Engine     *wiki.Engine
	Extension  *autocreate.Extension
	Recorder   metrics.Recorder
	Registry   *prom.Registry // nil when metrics are disabled
	Provenance *eventstore.ProvenanceProjection
	Logger     *slog.Logger
}

// AutocreateOptions converts the autocreate and wiki sections into extension options.
func AutocreateOptions(cfg *config.Config) autocreate.Options {
	opts := autocreate.Options{
		MaxRecursion:       cfg.Autocreate.Depth(),
		IgnoreEmptyTitle:   cfg.Autocreate.IgnoreEmptyTitle,
		IgnoreEmptyContent: cfg.Autocreate.IgnoreEmptyContent,
		DefaultUser:        cfg.Wiki.DefaultUser,
	}
	for _, id := range cfg.Autocreate.Namespaces {
		opts.Namespaces = append(opts.Namespaces, title.Namespace(id))
	}
	return opts
}

// Open builds a Runtime from cfg. The caller owns it and must Close it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	titles, err := title.NewParser(cfg.Wiki.ExtraNamespaces)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid wiki.extra_namespaces").Build()
	}

	rt := &Runtime{Config: cfg, Logger: logger}
	if cfg.Monitoring.Metrics.IsEnabled() {
		rt.Registry = prom.NewRegistry()
		rt.Recorder = metrics.NewPrometheusRecorder(rt.Registry)
	} else {
		rt.Recorder = metrics.NoopRecorder{}
	}

	pages, err := pagestore.NewSQLiteStore(cfg.Wiki.Database)
	if err != nil {
		return nil, err
	}
	rt.Pages = pages

	events, err := eventstore.NewSQLiteStore(cfg.Events.Database)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Events = events

	rt.Provenance = eventstore.NewProvenanceProjection(events)
	if err := rt.Provenance.Rebuild(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.Bus = hooks.NewBusWithEventStore(events).WithLogger(logger)
	rt.Bus.Subscribe(hooks.EventPageAutoCreated, rt.applyProvenance)

	rt.Engine, err = wiki.New(wiki.Options{
		Titles:      titles,
		Store:       pages,
		Bus:         rt.Bus,
		Recorder:    rt.Recorder,
		Logger:      logger,
		DefaultUser: cfg.Wiki.DefaultUser,
	})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.Extension = autocreate.New(rt.Engine, AutocreateOptions(cfg), autocreate.Deps{
		Messages:  i18n.New(cfg.Wiki.Language),
		Recorder:  rt.Recorder,
		Publisher: rt.Bus,
		Logger:    logger,
	})
	if err := rt.Extension.Install(rt.Engine.Preprocessor(), rt.Bus); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

// applyProvenance keeps the in-memory projection in step with the audit log.
func (rt *Runtime) applyProvenance(_ context.Context, e hooks.Event) error {
	audit, err := hooks.AuditEvent(e)
	if err != nil {
		return err
	}
	rt.Provenance.Apply(audit)
	return nil
}

// Close releases both databases.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.Events != nil {
		errs = append(errs, rt.Events.Close())
	}
	if rt.Pages != nil {
		errs = append(errs, rt.Pages.Close())
	}
	return stderrors.Join(errs...)
}
