package hooks

import (
	"encoding/json"
	"sort"
	"time"

	"git.home.luguber.info/inful/autopage/internal/eventstore"
	"git.home.luguber.info/inful/autopage/internal/title"
	"git.home.luguber.info/inful/autopage/internal/wikitext"
)

// Event is a wiki lifecycle event delivered through the Bus.
type Event interface {
	Name() string
	// SourcePage is the prefixed title of the page whose save caused the event.
	SourcePage() string
}

// Event names.
const (
	EventRevisionCommitted = eventstore.TypeRevisionCommitted
	EventPageAutoCreated   = eventstore.TypePageAutoCreated
)

// RevisionCommitted fires after a revision has been durably stored.
// Output is the parse output of the stored content; handlers may drain
// its PendingPages.
type RevisionCommitted struct {
	Page       title.Title
	RevisionID int64
	User       string
	NewPage    bool
	Output     *wikitext.Output
}

func (*RevisionCommitted) Name() string { return EventRevisionCommitted }

func (e *RevisionCommitted) SourcePage() string { return e.Page.PrefixedText() }

func (e *RevisionCommitted) MarshalJSON() ([]byte, error) {
	var pending []string
	if e.Output != nil {
		for t := range e.Output.PendingPages {
			pending = append(pending, t)
		}
		sort.Strings(pending)
	}
	return json.Marshal(eventstore.RevisionCommittedPayload{
		Page:       e.Page.PrefixedText(),
		RevisionID: e.RevisionID,
		User:       e.User,
		NewPage:    e.NewPage,
		Pending:    pending,
	})
}

// PageAutoCreated fires for every page created from another page's
// pending-creation entries.
type PageAutoCreated struct {
	Source     title.Title
	Page       title.Title
	RevisionID int64
	User       string
	Timestamp  time.Time
}

func (*PageAutoCreated) Name() string { return EventPageAutoCreated }

func (e *PageAutoCreated) SourcePage() string { return e.Source.PrefixedText() }

func (e *PageAutoCreated) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Payload())
}

// Payload returns the audit log form of the event.
func (e *PageAutoCreated) Payload() eventstore.PageAutoCreatedPayload {
	return eventstore.PageAutoCreatedPayload{
		Source:     e.Source.PrefixedText(),
		Title:      e.Page.PrefixedText(),
		RevisionID: e.RevisionID,
		User:       e.User,
		Timestamp:  e.Timestamp,
	}
}

// AuditEvent converts e into the form stored in the audit log.
func AuditEvent(e Event) (*eventstore.BaseEvent, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return &eventstore.BaseEvent{
		EventSource:    e.SourcePage(),
		EventType:      e.Name(),
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}, nil
}
