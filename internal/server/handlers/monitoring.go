package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/server/responses"
	"git.home.luguber.info/inful/autopage/internal/version"
)

// MonitoringHandlers contains monitoring-related HTTP handlers.
type MonitoringHandlers struct {
	startTime    time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(startTime time.Time, logger *slog.Logger) *MonitoringHandlers {
	return &MonitoringHandlers{startTime: startTime, errorAdapter: errors.NewHTTPErrorAdapter(logger)}
}

// HandleHealthCheck handles the health check endpoint.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Current(),
		Uptime:    time.Since(h.startTime).Seconds(),
	}
	if err := writeJSON(w, r, http.StatusOK, health); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write health response").Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}
