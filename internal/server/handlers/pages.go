package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/autopage/internal/eventstore"
	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/pagestore"
	"git.home.luguber.info/inful/autopage/internal/server/responses"
	"git.home.luguber.info/inful/autopage/internal/title"
	"git.home.luguber.info/inful/autopage/internal/wiki"
)

// maxBodyBytes bounds PUT bodies.
const maxBodyBytes = 4 << 20

// Wiki is the part of *wiki.Engine the page handlers use.
type Wiki interface {
	Render(ctx context.Context, titleText string) (*wiki.Page, error)
	Save(ctx context.Context, req wiki.SaveRequest) (*wiki.SaveResult, error)
	History(ctx context.Context, titleText string) (title.Title, []pagestore.Revision, error)
	ResolveTitle(text string) (title.Title, error)
}

var _ Wiki = (*wiki.Engine)(nil)

// ProvenanceLookup reports which page auto-created a title.
// *eventstore.ProvenanceProjection implements it.
type ProvenanceLookup interface {
	CreatedBy(title string) (eventstore.Provenance, bool)
}

// PageHandlers serves /pages/{title}.
type PageHandlers struct {
	wiki         Wiki
	provenance   ProvenanceLookup
	errorAdapter *errors.HTTPErrorAdapter
}

// NewPageHandlers creates page handlers backed by w. provenance may be nil.
func NewPageHandlers(w Wiki, provenance ProvenanceLookup, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{wiki: w, provenance: provenance, errorAdapter: errors.NewHTTPErrorAdapter(logger)}
}

// HandleGet renders the current revision of a page.
func (h *PageHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	page, err := h.wiki.Render(r.Context(), r.PathValue("title"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	links := page.Output.Links
	if links == nil {
		links = []string{}
	}
	resp := responses.PageResponse{
		Title:     page.Title.PrefixedText(),
		Namespace: int(page.Title.Namespace),
		Revision:  revisionResponse(page.Revision),
		Content:   page.Revision.Content,
		HTML:      page.Output.HTML,
		Links:     links,
	}
	if h.provenance != nil {
		if p, ok := h.provenance.CreatedBy(resp.Title); ok {
			resp.CreatedFrom = p.Source
		}
	}
	h.respond(w, r, http.StatusOK, resp)
}

// HandlePut saves a new revision. The response lists the pages the save
// created through parser functions; 201 is returned when the page itself is new.
func (h *PageHandlers) HandlePut(w http.ResponseWriter, r *http.Request) {
	var body responses.SavePageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryValidation, "invalid request body").Build())
		return
	}

	res, err := h.wiki.Save(r.Context(), wiki.SaveRequest{
		Title:   r.PathValue("title"),
		Content: body.Content,
		User:    body.User,
		Summary: body.Summary,
	})
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	created := make([]string, 0, len(res.AutoCreated))
	for _, t := range res.AutoCreated {
		created = append(created, t.PrefixedText())
	}
	status := http.StatusOK
	if res.NewPage {
		status = http.StatusCreated
	}
	h.respond(w, r, status, responses.SaveResponse{
		Title:       res.Title.PrefixedText(),
		NewPage:     res.NewPage,
		Revision:    revisionResponse(res.Revision),
		AutoCreated: created,
	})
}

// HandleHistory lists a page's revisions, newest first.
func (h *PageHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	t, revs, err := h.wiki.History(r.Context(), r.PathValue("title"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	resp := responses.HistoryResponse{Title: t.PrefixedText(), Revisions: make([]responses.RevisionResponse, 0, len(revs))}
	for i := range revs {
		resp.Revisions = append(resp.Revisions, revisionResponse(&revs[i]))
	}
	h.respond(w, r, http.StatusOK, resp)
}

func (h *PageHandlers) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := writeJSON(w, r, status, v); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}
