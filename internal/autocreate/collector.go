package autocreate

import (
	"context"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/i18n"
	"git.home.luguber.info/inful/autopage/internal/logfields"
	"git.home.luguber.info/inful/autopage/internal/metrics"
	"git.home.luguber.info/inful/autopage/internal/title"
	"git.home.luguber.info/inful/autopage/internal/wikitext"
)

// ErrMissingArguments is returned when the parser function is called
// without both a title and a content argument. It fails the parse.
var ErrMissingArguments = errors.ValidationError("createpage needs a title and a content argument").Build()

// Collector validates parser function calls and queues pages on the parse output.
type Collector struct {
	opts       Options
	namespaces map[title.Namespace]bool
	messages   Messages
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// NewCollector creates a Collector.
func NewCollector(opts Options, deps Deps) *Collector {
	deps = deps.withDefaults()
	return &Collector{
		opts:       opts,
		namespaces: opts.namespaceSet(),
		messages:   deps.Messages,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
	}
}

// Collect queues (titleText, content) on the output of pc and returns the
// text that replaces the call: empty on success or when the call is
// silently ignored, a localized error message otherwise.
func (c *Collector) Collect(ctx context.Context, pc ParserContext, titleText, content string) string {
	source := pc.Title().PrefixedText()

	if budget := BudgetFromContext(ctx, c.opts.MaxRecursion); budget <= 0 {
		c.recorder.IncCollect(metrics.CollectRecursionExceeded)
		c.logger.DebugContext(ctx, "Refusing page creation: recursion budget exhausted",
			logfields.Page(source), logfields.Budget(budget))
		return c.messages.Message(i18n.MsgRecursionExceeded)
	}

	titleText = strings.TrimSpace(titleText)
	if titleText == "" {
		if c.opts.IgnoreEmptyTitle {
			c.recorder.IncCollect(metrics.CollectIgnoredEmptyTitle)
			return ""
		}
		c.recorder.IncCollect(metrics.CollectEmptyTitle)
		return c.messages.Message(i18n.MsgEmptyTitle)
	}

	content = pc.UnstripNoWiki(content)
	if strings.TrimSpace(content) == "" {
		if c.opts.IgnoreEmptyContent {
			c.recorder.IncCollect(metrics.CollectIgnoredEmptyContent)
			return ""
		}
		c.recorder.IncCollect(metrics.CollectEmptyContent)
		return c.messages.Message(i18n.MsgEmptyContent)
	}

	if ns := pc.Namespace(); !c.namespaces[ns] {
		c.recorder.IncCollect(metrics.CollectOutOfNamespace)
		c.logger.DebugContext(ctx, "Ignoring page creation outside participating namespaces",
			logfields.Page(source), logfields.Namespace(int(ns)))
		return ""
	}

	pc.Output().AddPendingPage(titleText, content)
	c.recorder.IncCollect(metrics.CollectQueued)
	c.logger.DebugContext(ctx, "Queued page creation",
		logfields.Page(source), logfields.TargetTitle(titleText))
	return ""
}

// Invoke adapts Collect to the wikitext.Func signature: args[0] is the
// title, args[1] the content, further arguments are ignored.
func (c *Collector) Invoke(ctx context.Context, f *wikitext.Frame, args []string) (string, error) {
	if len(args) < 2 && BudgetFromContext(ctx, c.opts.MaxRecursion) > 0 {
		c.recorder.IncCollect(metrics.CollectMissingArguments)
		return "", ErrMissingArguments.WithContext("page", f.Title().PrefixedText()).WithContext("arguments", len(args))
	}
	var titleText, content string
	if len(args) > 0 {
		titleText = args[0]
	}
	if len(args) > 1 {
		content = args[1]
	}
	return c.Collect(ctx, f, titleText, content), nil
}
