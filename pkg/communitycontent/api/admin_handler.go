package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/community-content/pkg/communitycontent"
	"github.com/tendant/community-content/pkg/communitycontent/identity"
	"github.com/tendant/community-content/pkg/communitycontent/moderation"
	"github.com/tendant/community-content/pkg/communitycontent/stats"
)

// CredentialRotator replaces the calling operator's secret
type CredentialRotator interface {
	Rotate(ctx context.Context, principal communitycontent.Principal, current, next string) error
}

// AdminHandler serves the operator endpoints
type AdminHandler struct {
	moderation moderation.Service
	stats      stats.Service
	rotator    CredentialRotator
}

// NewAdminHandler creates an admin handler
func NewAdminHandler(mod moderation.Service, st stats.Service, rotator CredentialRotator) *AdminHandler {
	return &AdminHandler{
		moderation: mod,
		stats:      st,
		rotator:    rotator,
	}
}

// Routes returns the operator routes. Every route requires an operator
// principal.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requireOperator)

	r.Get("/content", h.ListContent)
	r.Get("/content/pending", h.ListPending)
	r.Patch("/content/{id}", h.SetApproval)
	r.Delete("/content/{id}", h.DeleteContent)
	r.Get("/stats", h.Stats)
	r.Get("/contributors", h.Contributors)
	r.Post("/credential", h.RotateCredential)

	return r
}

func requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := identity.RequireOperator(identity.FromContext(r.Context())); err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListContent lists items in every state. Supports ?state=, ?kind=,
// ?author=, ?limit= and ?offset=.
func (h *AdminHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts []moderation.ListItemsOption
	if raw := q.Get("state"); raw != "" {
		opts = append(opts, moderation.WithState(communitycontent.ApprovalState(raw)))
	}
	if raw := q.Get("kind"); raw != "" {
		opts = append(opts, moderation.WithKind(communitycontent.NormalizeKind(raw)))
	}
	if raw := q.Get("author"); raw != "" {
		opts = append(opts, moderation.WithAuthor(communitycontent.NormalizeEmail(raw)))
	}
	req := moderation.NewListItemsRequest(opts...)

	limit, offset, ok := parsePagination(w, r)
	if !ok {
		return
	}
	req.Limit, req.Offset = limit, offset

	resp, err := h.moderation.ListAll(r.Context(), identity.FromContext(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}

// ListPending returns the moderation queue
func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	items, err := h.moderation.ListPending(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*communitycontent.Item{}
	}

	render.JSON(w, r, ListResponse{Items: items})
}

// SetApprovalRequest is the body of PATCH /admin/content/{id}
type SetApprovalRequest struct {
	Approved *bool `json:"approved"`
}

// SetApproval approves an item or confirms it is pending
func (h *AdminHandler) SetApproval(w http.ResponseWriter, r *http.Request) {
	id, ok := parseItemID(w, r)
	if !ok {
		return
	}

	var req SetApprovalRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if req.Approved == nil {
		badRequest(w, r, "approved is required")
		return
	}

	item, err := h.moderation.SetApproval(r.Context(), identity.FromContext(r.Context()), id, *req.Approved)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, item)
}

// DeleteResponse confirms a deletion
type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// DeleteContent removes an item in any state
func (h *AdminHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseItemID(w, r)
	if !ok {
		return
	}

	if err := h.moderation.Delete(r.Context(), identity.FromContext(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, DeleteResponse{ID: id.String(), Deleted: true})
}

// Stats returns per-kind totals
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	result, err := h.stats.ComputeStats(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// Contributors returns the contributor report
func (h *AdminHandler) Contributors(w http.ResponseWriter, r *http.Request) {
	result, err := h.stats.ComputeContributorCounts(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// RotateCredentialRequest is the body of POST /admin/credential
type RotateCredentialRequest struct {
	CurrentSecret string `json:"currentSecret"`
	NewSecret     string `json:"newSecret"`
}

// RotateCredential changes the calling operator's secret
func (h *AdminHandler) RotateCredential(w http.ResponseWriter, r *http.Request) {
	var req RotateCredentialRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}

	principal := identity.FromContext(r.Context())
	if err := h.rotator.Rotate(r.Context(), principal, req.CurrentSecret, req.NewSecret); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Operator credential rotated", "operator", principal.Email)
	render.JSON(w, r, map[string]string{"status": "rotated"})
}
