// Package pagestore persists wiki pages and their revisions.
package pagestore

import (
	"context"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/title"
)

var (
	// ErrPageExists is returned by Create when the title is already taken.
	ErrPageExists = errors.AlreadyExistsError("page already exists").Build()
	// ErrPageNotFound is returned when a title has no stored page.
	ErrPageNotFound = errors.NotFoundError("page not found").Build()
)

// Revision is one stored version of a page.
type Revision struct {
	ID          int64
	PageID      int64
	ParentID    int64 // zero for the revision that created the page
	Title       title.Title
	Content     string
	User        string
	Summary     string
	Patrolled   bool
	Fingerprint string
	Timestamp   time.Time
}

// IsCreation reports whether this revision created its page.
func (r *Revision) IsCreation() bool { return r.ParentID == 0 }

// CreateOptions describes who made a revision and why.
type CreateOptions struct {
	User      string
	Summary   string
	Patrolled bool
}

// Store is the page and revision storage API.
type Store interface {
	// Exists reports whether a page is stored under t.
	Exists(ctx context.Context, t title.Title) (bool, error)

	// Latest returns the current revision of t, or ErrPageNotFound.
	Latest(ctx context.Context, t title.Title) (*Revision, error)

	// Create stores the first revision of a new page. It returns ErrPageExists
	// without writing anything when t is already taken.
	Create(ctx context.Context, t title.Title, content string, opts CreateOptions) (*Revision, error)

	// Save stores a new revision, creating the page when needed.
	Save(ctx context.Context, t title.Title, content string, opts CreateOptions) (*Revision, error)

	// History returns the revisions of t, newest first, or ErrPageNotFound.
	History(ctx context.Context, t title.Title) ([]Revision, error)

	Close() error
}

// Fingerprint returns the content fingerprint stored with each revision.
func Fingerprint(content string) string {
	return mdfp.CalculateFingerprintFromParts("", content)
}

func notFound(t title.Title) error {
	return ErrPageNotFound.WithContext("page", t.PrefixedText())
}

func exists(t title.Title) error {
	return ErrPageExists.WithContext("page", t.PrefixedText())
}
