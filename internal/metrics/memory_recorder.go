package metrics

import (
	"sync"
	"time"
)

// MemoryRecorder counts events in memory. Useful in tests.
type MemoryRecorder struct {
	mu           sync.Mutex
	collect      map[CollectOutcome]int
	materialize  map[MaterializeOutcome]int
	materializes int
	renders      int
	saved        int
	created      int
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		collect:     map[CollectOutcome]int{},
		materialize: map[MaterializeOutcome]int{},
	}
}

func (m *MemoryRecorder) IncCollect(o CollectOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collect[o]++
}

func (m *MemoryRecorder) IncMaterialize(o MaterializeOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.materialize[o]++
}

func (m *MemoryRecorder) ObserveMaterializeDuration(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.materializes++
}

func (m *MemoryRecorder) ObserveRenderDuration(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renders++
}

func (m *MemoryRecorder) IncRevisionSaved(newPage bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved++
	if newPage {
		m.created++
	}
}

func (m *MemoryRecorder) Collect(o CollectOutcome) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collect[o]
}

func (m *MemoryRecorder) Materialize(o MaterializeOutcome) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.materialize[o]
}

// MaterializeRuns counts Materializer passes that had work to do.
func (m *MemoryRecorder) MaterializeRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.materializes
}

func (m *MemoryRecorder) Renders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renders
}

// Saved returns the number of stored revisions and how many of them created a page.
func (m *MemoryRecorder) Saved() (revisions, newPages int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved, m.created
}
