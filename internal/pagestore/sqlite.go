package pagestore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/title"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// NewSQLiteStore opens (and migrates) a page database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "open page database").WithContext("path", dbPath).Build()
	}
	// One connection: keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryStorage, "initialize page schema").Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		namespace INTEGER NOT NULL,
		title TEXT NOT NULL,
		latest_revision INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		UNIQUE(namespace, title)
	);
	CREATE TABLE IF NOT EXISTS revisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page_id INTEGER NOT NULL REFERENCES pages(id),
		parent_id INTEGER NOT NULL DEFAULT 0,
		content TEXT NOT NULL,
		author TEXT NOT NULL,
		summary TEXT NOT NULL,
		patrolled INTEGER NOT NULL DEFAULT 0,
		fingerprint TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_revisions_page ON revisions(page_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Exists reports whether a page is stored under t.
func (s *SQLiteStore) Exists(ctx context.Context, t title.Title) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM pages WHERE namespace = ? AND title = ?", int(t.Namespace), t.Text,
	).Scan(&one)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, errors.WrapError(err, errors.CategoryStorage, "query page").WithContext("page", t.PrefixedText()).Build()
	}
	return true, nil
}

// Latest returns the current revision of t.
func (s *SQLiteStore) Latest(ctx context.Context, t title.Title) (*Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.page_id, r.parent_id, r.content, r.author, r.summary, r.patrolled, r.fingerprint, r.timestamp
		FROM pages p JOIN revisions r ON r.id = p.latest_revision
		WHERE p.namespace = ? AND p.title = ?`, int(t.Namespace), t.Text)
	rev, err := scanRevision(row, t)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(t)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "query latest revision").WithContext("page", t.PrefixedText()).Build()
	}
	return rev, nil
}

// Create stores the first revision of a new page.
func (s *SQLiteStore) Create(ctx context.Context, t title.Title, content string, opts CreateOptions) (*Revision, error) {
	return s.write(ctx, t, content, opts, true)
}

// Save stores a new revision, creating the page when needed.
func (s *SQLiteStore) Save(ctx context.Context, t title.Title, content string, opts CreateOptions) (*Revision, error) {
	return s.write(ctx, t, content, opts, false)
}

func (s *SQLiteStore) write(ctx context.Context, t title.Title, content string, opts CreateOptions, createOnly bool) (*Revision, error) {
	if !t.CanExist() {
		return nil, errors.TitleError("title cannot hold a page").WithContext("page", t.PrefixedText()).Build()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "begin transaction").Build()
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	var pageID, parentID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id, latest_revision FROM pages WHERE namespace = ? AND title = ?", int(t.Namespace), t.Text,
	).Scan(&pageID, &parentID)
	switch {
	case err == nil && createOnly:
		return nil, exists(t)
	case stderrors.Is(err, sql.ErrNoRows):
		res, ierr := tx.ExecContext(ctx,
			"INSERT INTO pages (namespace, title, created_at) VALUES (?, ?, ?)",
			int(t.Namespace), t.Text, now.UnixMilli())
		if ierr != nil {
			return nil, errors.WrapError(ierr, errors.CategoryStorage, "insert page").WithContext("page", t.PrefixedText()).Build()
		}
		if pageID, err = res.LastInsertId(); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "read page id").Build()
		}
	case err != nil:
		return nil, errors.WrapError(err, errors.CategoryStorage, "query page").WithContext("page", t.PrefixedText()).Build()
	}

	rev := &Revision{
		PageID:      pageID,
		ParentID:    parentID,
		Title:       t,
		Content:     content,
		User:        opts.User,
		Summary:     opts.Summary,
		Patrolled:   opts.Patrolled,
		Fingerprint: Fingerprint(content),
		Timestamp:   time.UnixMilli(now.UnixMilli()),
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO revisions (page_id, parent_id, content, author, summary, patrolled, fingerprint, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rev.PageID, rev.ParentID, rev.Content, rev.User, rev.Summary, rev.Patrolled, rev.Fingerprint, now.UnixMilli())
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "insert revision").WithContext("page", t.PrefixedText()).Build()
	}
	if rev.ID, err = res.LastInsertId(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "read revision id").Build()
	}
	if _, err := tx.ExecContext(ctx, "UPDATE pages SET latest_revision = ? WHERE id = ?", rev.ID, pageID); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "update page").WithContext("page", t.PrefixedText()).Build()
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "commit revision").WithContext("page", t.PrefixedText()).Build()
	}
	return rev, nil
}

// History returns the revisions of t, newest first.
func (s *SQLiteStore) History(ctx context.Context, t title.Title) ([]Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.page_id, r.parent_id, r.content, r.author, r.summary, r.patrolled, r.fingerprint, r.timestamp
		FROM pages p JOIN revisions r ON r.page_id = p.id
		WHERE p.namespace = ? AND p.title = ?
		ORDER BY r.id DESC`, int(t.Namespace), t.Text)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "query history").WithContext("page", t.PrefixedText()).Build()
	}
	defer rows.Close()

	var revs []Revision
	for rows.Next() {
		rev, err := scanRevision(rows, t)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "scan revision").Build()
		}
		revs = append(revs, *rev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "iterate revisions").Build()
	}
	if len(revs) == 0 {
		return nil, notFound(t)
	}
	return revs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRevision(row scanner, t title.Title) (*Revision, error) {
	rev := &Revision{Title: t}
	var ts int64
	if err := row.Scan(&rev.ID, &rev.PageID, &rev.ParentID, &rev.Content, &rev.User, &rev.Summary,
		&rev.Patrolled, &rev.Fingerprint, &ts); err != nil {
		return nil, err
	}
	rev.Timestamp = time.UnixMilli(ts)
	return rev, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
