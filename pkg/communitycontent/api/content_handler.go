package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/community-content/pkg/communitycontent"
	"github.com/tendant/community-content/pkg/communitycontent/identity"
)

// maxBodyBytes bounds request bodies accepted by the JSON endpoints.
const maxBodyBytes = 1 << 20

// ContentHandler serves the public and contributor content endpoints
type ContentHandler struct {
	service communitycontent.Service
	policy  communitycontent.SubmissionPath
}

// NewContentHandler creates a content handler. policy decides the initial
// state of items posted to the submission endpoint.
func NewContentHandler(service communitycontent.Service, policy communitycontent.SubmissionPath) *ContentHandler {
	if !policy.IsValid() {
		policy = communitycontent.SubmissionReview
	}
	return &ContentHandler{
		service: service,
		policy:  policy,
	}
}

// Routes returns the routes for content
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListContent)
	r.Post("/", h.SubmitContent)
	r.Post("/proposals", h.ProposeContent)
	r.Get("/{id}", h.GetContent)

	return r
}

// ListResponse wraps a page of items
type ListResponse struct {
	Items []*communitycontent.Item `json:"items"`
}

// ListContent lists visible items, optionally filtered by ?kind=
func (h *ContentHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	var req communitycontent.ListRequest

	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind := communitycontent.NormalizeKind(raw)
		req.Kind = &kind
	}
	limit, offset, ok := parsePagination(w, r)
	if !ok {
		return
	}
	req.Limit, req.Offset = limit, offset

	items, err := h.service.ListVisible(r.Context(), identity.FromContext(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*communitycontent.Item{}
	}

	render.JSON(w, r, ListResponse{Items: items})
}

// SubmitContent accepts a submission using the configured policy
func (h *ContentHandler) SubmitContent(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.policy)
}

// ProposeContent accepts a submission that always waits for review
func (h *ContentHandler) ProposeContent(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, communitycontent.SubmissionReview)
}

func (h *ContentHandler) submit(w http.ResponseWriter, r *http.Request, path communitycontent.SubmissionPath) {
	principal := identity.FromContext(r.Context())
	if err := identity.RequireUser(principal); err != nil {
		writeError(w, r, err)
		return
	}

	var req communitycontent.SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	req.Kind = communitycontent.NormalizeKind(string(req.Kind))

	item, err := h.service.Submit(r.Context(), principal, req, path)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Item submitted", "item_id", item.ID, "kind", item.Kind, "state", item.State())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, item)
}

// GetContent returns a single item when visible to the caller
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseItemID(w, r)
	if !ok {
		return
	}

	item, err := h.service.Get(r.Context(), identity.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, item)
}

func parseItemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		slog.Debug("Invalid item ID", "item_id", raw, "error", err)
		badRequest(w, r, "Invalid item ID")
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(w http.ResponseWriter, r *http.Request) (limit, offset *int, ok bool) {
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  **int
	}{{"limit", &limit}, {"offset", &offset}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(w, r, "Invalid "+p.name)
			return nil, nil, false
		}
		*p.dst = &n
	}
	return limit, offset, true
}
