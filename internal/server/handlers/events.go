package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/autopage/internal/eventstore"
	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/server/responses"
	"git.home.luguber.info/inful/autopage/internal/title"
)

// EventLog is the read side of the audit log.
type EventLog interface {
	GetBySource(ctx context.Context, source string) ([]eventstore.Event, error)
}

// TitleResolver canonicalizes the source query parameter.
type TitleResolver interface {
	ResolveTitle(text string) (title.Title, error)
}

// EventHandlers serves GET /events.
type EventHandlers struct {
	log          EventLog
	titles       TitleResolver
	errorAdapter *errors.HTTPErrorAdapter
}

// NewEventHandlers creates audit log handlers.
func NewEventHandlers(log EventLog, titles TitleResolver, logger *slog.Logger) *EventHandlers {
	return &EventHandlers{log: log, titles: titles, errorAdapter: errors.NewHTTPErrorAdapter(logger)}
}

// HandleList returns every event recorded for ?source=Title, oldest first.
func (h *EventHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("source")
	if raw == "" {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("source query parameter is required").Build())
		return
	}
	t, err := h.titles.ResolveTitle(raw)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	events, err := h.log.GetBySource(r.Context(), t.PrefixedText())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	resp := responses.EventsResponse{Source: t.PrefixedText(), Events: make([]responses.EventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, responses.EventResponse{
			ID:        e.ID(),
			Type:      e.Type(),
			Source:    e.Source(),
			Timestamp: e.Timestamp().UTC(),
			Payload:   e.Payload(),
		})
	}
	if err := writeJSON(w, r, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}
