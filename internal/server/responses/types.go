// Package responses defines the JSON bodies of the autopage HTTP API.
package responses

import (
	"encoding/json"
	"time"
)

// SavePageRequest is the body of PUT /pages/{title}.
type SavePageRequest struct {
	Content string `json:"content"`
	User    string `json:"user,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// RevisionResponse describes one stored revision.
type RevisionResponse struct {
	ID          int64     `json:"id"`
	ParentID    int64     `json:"parent_id,omitempty"`
	User        string    `json:"user"`
	Summary     string    `json:"summary,omitempty"`
	Patrolled   bool      `json:"patrolled"`
	Fingerprint string    `json:"fingerprint"`
	Timestamp   time.Time `json:"timestamp"`
}

// PageResponse is the body of GET /pages/{title}.
type PageResponse struct {
	Title     string           `json:"title"`
	Namespace int              `json:"namespace"`
	Revision  RevisionResponse `json:"revision"`
	Content   string           `json:"content"`
	HTML      string           `json:"html"`
	Links     []string         `json:"links"`
	// CreatedFrom names the page whose save auto-created this one.
	CreatedFrom string `json:"created_from,omitempty"`
}

// SaveResponse is the body of PUT /pages/{title}.
type SaveResponse struct {
	Title       string           `json:"title"`
	NewPage     bool             `json:"new_page"`
	Revision    RevisionResponse `json:"revision"`
	AutoCreated []string         `json:"auto_created"`
}

// HistoryResponse is the body of GET /pages/{title}/history.
type HistoryResponse struct {
	Title     string             `json:"title"`
	Revisions []RevisionResponse `json:"revisions"`
}

// EventResponse is one audit log entry.
type EventResponse struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// EventsResponse is the body of GET /events.
type EventsResponse struct {
	Source string          `json:"source"`
	Events []EventResponse `json:"events"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
}
