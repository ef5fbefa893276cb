package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/autopage/internal/logfields"
	"git.home.luguber.info/inful/autopage/internal/pagestore"
	"git.home.luguber.info/inful/autopage/internal/server/responses"
)

// writeJSON serializes the provided value to JSON and writes it with the given
// status code. Encoding is performed into an intermediate buffer so that we
// don't send partial responses if serialization fails.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if p := r.URL.Query().Get("pretty"); p == "1" || p == "true" {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed writing JSON response body", logfields.Error(err))
		return err
	}
	return nil
}

func revisionResponse(rev *pagestore.Revision) responses.RevisionResponse {
	return responses.RevisionResponse{
		ID:          rev.ID,
		ParentID:    rev.ParentID,
		User:        rev.User,
		Summary:     rev.Summary,
		Patrolled:   rev.Patrolled,
		Fingerprint: rev.Fingerprint,
		Timestamp:   rev.Timestamp.UTC(),
	}
}
