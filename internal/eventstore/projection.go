// Package eventstore keeps the audit log of page saves and auto-created pages.
package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Provenance records which page caused another page to be auto-created.
type Provenance struct {
	Title      string    `json:"title"`
	Source     string    `json:"source"`
	RevisionID int64     `json:"revision_id"`
	User       string    `json:"user"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProvenanceProjection maintains an in-memory view of auto-created pages,
// reconstructed from PageAutoCreated events.
type ProvenanceProjection struct {
	mu       sync.RWMutex
	store    Store
	byTitle  map[string]Provenance
	bySource map[string][]Provenance
	lastSync time.Time
}

// NewProvenanceProjection creates a new projection backed by the given store.
func NewProvenanceProjection(store Store) *ProvenanceProjection {
	return &ProvenanceProjection{
		store:    store,
		byTitle:  make(map[string]Provenance),
		bySource: make(map[string][]Provenance),
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *ProvenanceProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return wrap(ErrProjectionRebuildFailed, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.byTitle = make(map[string]Provenance)
	p.bySource = make(map[string][]Provenance)
	for _, event := range events {
		p.applyEventLocked(event)
	}
	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event and updates the projection.
func (p *ProvenanceProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *ProvenanceProjection) applyEventLocked(event Event) {
	if event.Type() != TypePageAutoCreated {
		return
	}
	payload, err := DecodePayload[PageAutoCreatedPayload](event)
	if err != nil || payload.Title == "" {
		return
	}
	if _, seen := p.byTitle[payload.Title]; seen {
		return
	}
	prov := Provenance{
		Title:      payload.Title,
		Source:     payload.Source,
		RevisionID: payload.RevisionID,
		User:       payload.User,
		CreatedAt:  payload.Timestamp,
	}
	if prov.CreatedAt.IsZero() {
		prov.CreatedAt = event.Timestamp()
	}
	p.byTitle[prov.Title] = prov
	p.bySource[prov.Source] = append(p.bySource[prov.Source], prov)
}

// CreatedBy returns the provenance of an auto-created page.
func (p *ProvenanceProjection) CreatedBy(title string) (Provenance, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	prov, ok := p.byTitle[title]
	return prov, ok
}

// CreatedFrom returns the pages auto-created by saves of source, sorted by title.
func (p *ProvenanceProjection) CreatedFrom(source string) []Provenance {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := append([]Provenance(nil), p.bySource[source]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Len returns the number of auto-created pages known to the projection.
func (p *ProvenanceProjection) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byTitle)
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *ProvenanceProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
