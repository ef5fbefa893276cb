// Package watch imports page source files from a directory into the wiki,
// once or continuously as files change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/frontmatter"
	"git.home.luguber.info/inful/autopage/internal/logfields"
	"git.home.luguber.info/inful/autopage/internal/wiki"
)

// Extensions lists the file extensions treated as page sources.
var Extensions = []string{".wiki", ".md"}

// Saver stores one edit. *wiki.Engine implements it.
type Saver interface {
	Save(ctx context.Context, req wiki.SaveRequest) (*wiki.SaveResult, error)
}

var _ Saver = (*wiki.Engine)(nil)

// IsSource reports whether path has a page source extension.
func IsSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadFile reads a page source file into a save request. The title comes
// from the frontmatter, or from the file name without its extension.
func LoadFile(path string) (wiki.SaveRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return wiki.SaveRequest{}, errors.WrapError(err, errors.CategoryNotFound, "failed to read page source").
			WithContext("path", path).
			Build()
	}
	header, body, err := frontmatter.Parse(data)
	if err != nil {
		return wiki.SaveRequest{}, errors.WrapError(err, errors.CategoryValidation, "invalid frontmatter").
			WithContext("path", path).
			Build()
	}

	req := wiki.SaveRequest{
		Title:   header.Title,
		Content: string(body),
		User:    header.User,
		Summary: header.Summary,
	}
	if req.Title == "" {
		base := filepath.Base(path)
		req.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if req.Summary == "" {
		req.Summary = "Imported from " + filepath.Base(path)
	}
	return req, nil
}

// Report summarizes an ImportDir run.
type Report struct {
	Saved       []string
	AutoCreated []string
	Failed      map[string]error
}

// ImportDir saves every page source below dir in lexical path order. A file
// that fails to load or save is recorded in the report and skipped; only a
// walk failure or context cancellation aborts the run.
func ImportDir(ctx context.Context, saver Saver, dir string, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	report := &Report{Failed: map[string]error{}}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !IsSource(path) {
			return nil
		}
		res, err := importFile(ctx, saver, path)
		if err != nil {
			report.Failed[path] = err
			logger.WarnContext(ctx, "Import failed", logfields.Path(path), logfields.Error(err))
			return nil
		}
		report.Saved = append(report.Saved, res.Title.PrefixedText())
		for _, t := range res.AutoCreated {
			report.AutoCreated = append(report.AutoCreated, t.PrefixedText())
		}
		logger.InfoContext(ctx, "Imported page",
			logfields.Path(path),
			logfields.Page(res.Title.PrefixedText()),
			logfields.RevisionID(res.Revision.ID))
		return nil
	})
	if err != nil {
		return report, errors.WrapError(err, errors.CategoryRuntime, "import directory").WithContext("dir", dir).Build()
	}
	return report, nil
}

func importFile(ctx context.Context, saver Saver, path string) (*wiki.SaveResult, error) {
	req, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return saver.Save(ctx, req)
}
