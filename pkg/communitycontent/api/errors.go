package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/community-content/pkg/communitycontent"
)

// ErrorBody is the JSON error envelope returned by every endpoint.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// classify maps a service error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, communitycontent.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, communitycontent.ErrInvalidCredential):
		return http.StatusBadRequest, "invalid_credential"
	case errors.Is(err, communitycontent.ErrInvalidTransition):
		return http.StatusBadRequest, "invalid_transition"
	case errors.Is(err, communitycontent.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, communitycontent.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, communitycontent.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, communitycontent.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// publicMessage hides store causes and internal failures from clients.
func publicMessage(status int, err error) string {
	switch status {
	case http.StatusUnauthorized:
		return "Authentication required"
	case http.StatusNotFound:
		return "Item not found"
	case http.StatusServiceUnavailable:
		return "Content store is temporarily unavailable"
	case http.StatusInternalServerError:
		return "An internal server error occurred"
	}
	var vErr *communitycontent.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	return err.Error()
}

// writeError renders err with the status its class maps to. Server-side
// failures are logged with their full cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed",
			"request_id", RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeErrorBody(w, r, status, code, publicMessage(status, err))
}

func writeErrorBody(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFromContext(r.Context()),
	}})
}

func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeErrorBody(w, r, http.StatusBadRequest, "bad_request", message)
}
