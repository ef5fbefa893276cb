package pagestore

import (
	"context"
	"sync"
	"time"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/title"
)

type pageKey struct {
	ns   title.Namespace
	text string
}

type memoryPage struct {
	id        int64
	revisions []Revision // oldest first
}

// MemoryStore is an in-memory implementation of Store for tests and
// throwaway wikis.
type MemoryStore struct {
	mu     sync.RWMutex
	pages  map[pageKey]*memoryPage
	nextID int64
	nextRv int64
	fail   map[pageKey]error
	calls  MemoryCalls
	now    func() time.Time
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	Exists  int
	Latest  int
	Create  int
	Save    int
	History int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pages: make(map[pageKey]*memoryPage),
		fail:  make(map[pageKey]error),
		now:   time.Now,
	}
}

// FailWrites makes every later Create or Save for t return err.
func (m *MemoryStore) FailWrites(t title.Title, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[keyOf(t)] = err
}

// Calls returns a snapshot of the invocation counters.
func (m *MemoryStore) Calls() MemoryCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Len returns the number of stored pages.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pages)
}

func keyOf(t title.Title) pageKey { return pageKey{ns: t.Namespace, text: t.Text} }

func (m *MemoryStore) Exists(_ context.Context, t title.Title) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Exists++
	_, ok := m.pages[keyOf(t)]
	return ok, nil
}

func (m *MemoryStore) Latest(_ context.Context, t title.Title) (*Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Latest++
	p, ok := m.pages[keyOf(t)]
	if !ok {
		return nil, notFound(t)
	}
	rev := p.revisions[len(p.revisions)-1]
	return &rev, nil
}

func (m *MemoryStore) Create(ctx context.Context, t title.Title, content string, opts CreateOptions) (*Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Create++
	return m.write(ctx, t, content, opts, true)
}

func (m *MemoryStore) Save(ctx context.Context, t title.Title, content string, opts CreateOptions) (*Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Save++
	return m.write(ctx, t, content, opts, false)
}

// write must be called with m.mu held.
func (m *MemoryStore) write(ctx context.Context, t title.Title, content string, opts CreateOptions, createOnly bool) (*Revision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !t.CanExist() {
		return nil, errors.TitleError("title cannot hold a page").WithContext("page", t.PrefixedText()).Build()
	}
	key := keyOf(t)
	if err, ok := m.fail[key]; ok {
		return nil, err
	}

	p, ok := m.pages[key]
	if ok && createOnly {
		return nil, exists(t)
	}
	if !ok {
		m.nextID++
		p = &memoryPage{id: m.nextID}
		m.pages[key] = p
	}

	var parent int64
	if n := len(p.revisions); n > 0 {
		parent = p.revisions[n-1].ID
	}
	m.nextRv++
	rev := Revision{
		ID:          m.nextRv,
		PageID:      p.id,
		ParentID:    parent,
		Title:       t,
		Content:     content,
		User:        opts.User,
		Summary:     opts.Summary,
		Patrolled:   opts.Patrolled,
		Fingerprint: Fingerprint(content),
		Timestamp:   m.now(),
	}
	p.revisions = append(p.revisions, rev)
	return &rev, nil
}

func (m *MemoryStore) History(_ context.Context, t title.Title) ([]Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.History++
	p, ok := m.pages[keyOf(t)]
	if !ok {
		return nil, notFound(t)
	}
	out := make([]Revision, 0, len(p.revisions))
	for i := len(p.revisions) - 1; i >= 0; i-- {
		out = append(out, p.revisions[i])
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
