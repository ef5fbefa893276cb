package eventstore

import (
	"encoding/json"
	"time"
)

// Event type names written to the audit log.
const (
	TypeRevisionCommitted = "RevisionCommitted"
	TypePageAutoCreated   = "PageAutoCreated"
)

// RevisionCommittedPayload is the stored form of a saved revision.
type RevisionCommittedPayload struct {
	Page       string   `json:"page"`
	RevisionID int64    `json:"revision_id"`
	User       string   `json:"user"`
	NewPage    bool     `json:"new_page"`
	Pending    []string `json:"pending,omitempty"` // titles queued for auto-creation
}

// PageAutoCreatedPayload is the stored form of a page created on behalf of
// another page's parser function call.
type PageAutoCreatedPayload struct {
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	RevisionID int64     `json:"revision_id"`
	User       string    `json:"user"`
	Timestamp  time.Time `json:"timestamp"`
}

// DecodePayload unmarshals the JSON payload of e into T.
func DecodePayload[T any](e Event) (T, error) {
	var out T
	if err := json.Unmarshal(e.Payload(), &out); err != nil {
		return out, wrap(ErrUnmarshalPayloadFailed, err)
	}
	return out, nil
}
