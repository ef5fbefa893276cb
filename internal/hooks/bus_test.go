package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/autopage/internal/eventstore"
	"git.home.luguber.info/inful/autopage/internal/title"
	"git.home.luguber.info/inful/autopage/internal/wikitext"
)

type appended struct {
	source    string
	eventType string
	payload   []byte
}

// mockEventStore implements EventStore for testing.
type mockEventStore struct {
	mu     sync.Mutex
	events []appended
	err    error
}

func (m *mockEventStore) Append(_ context.Context, source, eventType string, payload []byte, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, appended{source, eventType, payload})
	return nil
}

func mustTitle(t *testing.T, text string) title.Title {
	t.Helper()
	tt, err := title.DefaultParser().Parse(text)
	require.NoError(t, err)
	return tt
}

func TestBusWithoutEventStore(t *testing.T) {
	bus := NewBus()

	called := false
	bus.Subscribe(EventRevisionCommitted, func(context.Context, Event) error {
		called = true
		return nil
	})

	require.NoError(t, bus.Publish(t.Context(), &RevisionCommitted{Page: mustTitle(t, "Home")}))
	require.True(t, called)
}

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []int
	for i := range 3 {
		bus.Subscribe(EventRevisionCommitted, func(context.Context, Event) error {
			order = append(order, i)
			return nil
		})
	}
	bus.Subscribe(EventPageAutoCreated, func(context.Context, Event) error {
		t.Fatal("handler for another event must not run")
		return nil
	})
	bus.Subscribe(EventRevisionCommitted, nil)

	require.NoError(t, bus.Publish(t.Context(), &RevisionCommitted{Page: mustTitle(t, "Home")}))
	require.Equal(t, []int{0, 1, 2}, order)
}

func TestBusRunsAllHandlersAndJoinsErrors(t *testing.T) {
	bus := NewBus()
	first := errors.New("first")
	second := errors.New("second")
	ran := 0
	bus.Subscribe(EventRevisionCommitted, func(context.Context, Event) error { ran++; return first })
	bus.Subscribe(EventRevisionCommitted, func(context.Context, Event) error { ran++; return second })

	err := bus.Publish(t.Context(), &RevisionCommitted{Page: mustTitle(t, "Home")})
	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, second)
	require.Equal(t, 2, ran)
}

func TestBusPersistsEventsBeforeHandlers(t *testing.T) {
	store := &mockEventStore{}
	bus := NewBusWithEventStore(store)

	out := &wikitext.Output{}
	out.AddPendingPage("Help", "content")
	bus.Subscribe(EventRevisionCommitted, func(_ context.Context, e Event) error {
		e.(*RevisionCommitted).Output.TakePendingPages()
		return nil
	})

	err := bus.Publish(t.Context(), &RevisionCommitted{
		Page:       mustTitle(t, "Home"),
		RevisionID: 7,
		User:       "alice",
		NewPage:    true,
		Output:     out,
	})
	require.NoError(t, err)
	require.Len(t, store.events, 1)
	require.Equal(t, "Home", store.events[0].source)
	require.Equal(t, EventRevisionCommitted, store.events[0].eventType)

	var payload eventstore.RevisionCommittedPayload
	require.NoError(t, json.Unmarshal(store.events[0].payload, &payload))
	require.Equal(t, eventstore.RevisionCommittedPayload{
		Page: "Home", RevisionID: 7, User: "alice", NewPage: true, Pending: []string{"Help"},
	}, payload)
	require.Nil(t, out.PendingPages)
}

func TestBusPersistenceFailureDoesNotStopDelivery(t *testing.T) {
	bus := NewBusWithEventStore(&mockEventStore{err: errors.New("db locked")})
	called := false
	bus.Subscribe(EventPageAutoCreated, func(context.Context, Event) error {
		called = true
		return nil
	})

	err := bus.Publish(t.Context(), &PageAutoCreated{Source: mustTitle(t, "Home"), Page: mustTitle(t, "Help")})
	require.NoError(t, err)
	require.True(t, called)
}

func TestAuditEventForPageAutoCreated(t *testing.T) {
	record, err := AuditEvent(&PageAutoCreated{
		Source:     mustTitle(t, "Home"),
		Page:       mustTitle(t, "Help:Intro"),
		RevisionID: 3,
		User:       "alice",
	})
	require.NoError(t, err)
	require.Equal(t, "Home", record.Source())
	require.Equal(t, EventPageAutoCreated, record.Type())

	payload, err := eventstore.DecodePayload[eventstore.PageAutoCreatedPayload](record)
	require.NoError(t, err)
	require.Equal(t, "Help:Intro", payload.Title)
	require.Equal(t, "Home", payload.Source)
	require.Equal(t, int64(3), payload.RevisionID)
}
