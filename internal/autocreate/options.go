package autocreate

import (
	"log/slog"

	"git.home.luguber.info/inful/autopage/internal/i18n"
	"git.home.luguber.info/inful/autopage/internal/metrics"
	"git.home.luguber.info/inful/autopage/internal/title"
)

// DefaultMaxRecursion allows pages created by auto-creation but no further
// auto-creation from them.
const DefaultMaxRecursion = 1

// Options are the static settings of the extension.
type Options struct {
	// MaxRecursion is the budget of a save that was not itself caused by
	// auto-creation. Zero disables the parser function.
	MaxRecursion int
	// IgnoreEmptyTitle makes an empty title render nothing instead of an error message.
	IgnoreEmptyTitle bool
	// IgnoreEmptyContent makes empty content render nothing instead of an error message.
	IgnoreEmptyContent bool
	// Namespaces whose pages may queue creations. Empty means the main namespace only.
	Namespaces []title.Namespace
	// DefaultUser attributes creations whose source revision has no user.
	DefaultUser string
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxRecursion: DefaultMaxRecursion,
		Namespaces:   []title.Namespace{title.NamespaceMain},
		DefaultUser:  "Autopage",
	}
}

func (o Options) namespaceSet() map[title.Namespace]bool {
	set := make(map[title.Namespace]bool, len(o.Namespaces))
	for _, ns := range o.Namespaces {
		set[ns] = true
	}
	if len(set) == 0 {
		set[title.NamespaceMain] = true
	}
	return set
}

// Messages renders localized user-visible strings.
type Messages interface {
	Message(key string, args ...any) string
}

// Deps are the collaborators shared by the Collector and the Materializer.
// Nil fields get working defaults.
type Deps struct {
	Messages  Messages
	Recorder  metrics.Recorder
	Publisher Publisher
	Logger    *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Messages == nil {
		d.Messages = i18n.New("en")
	}
	d.Recorder = metrics.OrNoop(d.Recorder)
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}
