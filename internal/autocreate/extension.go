package autocreate

import "git.home.luguber.info/inful/autopage/internal/hooks"

// FunctionName is the parser function name, matched case-insensitively.
const FunctionName = "createpage"

// Extension bundles the two halves of page auto-creation.
type Extension struct {
	Collector    *Collector
	Materializer *Materializer
}

// New creates an Extension whose Materializer writes through store.
func New(store PageStore, opts Options, deps Deps) *Extension {
	return &Extension{
		Collector:    NewCollector(opts, deps),
		Materializer: NewMaterializer(store, opts, deps),
	}
}

// Install registers the parser function and the revision commit handler.
func (x *Extension) Install(registry FunctionRegistry, notifier RevisionCommitNotifier) error {
	if err := registry.Register(FunctionName, x.Collector.Invoke); err != nil {
		return err
	}
	notifier.Subscribe(hooks.EventRevisionCommitted, x.Materializer.HandleRevisionCommitted)
	return nil
}
