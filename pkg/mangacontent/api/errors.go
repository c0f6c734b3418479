package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/manga-content/pkg/mangacontent"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Message string `json:"message"`
}

// MessageResponse acknowledges a request without returning an entity
type MessageResponse struct {
	Message string `json:"message"`
}

// authError carries the client-facing reason a credential was refused.
type authError struct {
	message string
}

func (e *authError) Error() string {
	return e.message
}

func (e *authError) Unwrap() error {
	return mangacontent.ErrUnauthenticated
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, mangacontent.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, mangacontent.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, mangacontent.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, mangacontent.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, mangacontent.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error, status int) string {
	var (
		validation *mangacontent.ValidationError
		pageErr    *mangacontent.PageConflictError
		authErr    *authError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &pageErr):
		return pageErr.Error()
	case errors.As(err, &authErr):
		return authErr.message
	case errors.Is(err, mangacontent.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, mangacontent.ErrDuplicateIdentity):
		return "User already exists"
	case errors.Is(err, mangacontent.ErrFileNotFound), errors.Is(err, mangacontent.ErrBlobNotFound):
		return "File not found for this manga"
	case errors.Is(err, mangacontent.ErrCoverNotFound):
		return "Cover not found"
	}

	switch status {
	case http.StatusBadRequest:
		return "Invalid request"
	case http.StatusUnauthorized:
		return "Authentication required"
	case http.StatusForbidden:
		return "You do not have permission to perform this action"
	case http.StatusNotFound:
		return "Manga not found"
	case http.StatusConflict:
		return "Conflict"
	default:
		return "Internal server error"
	}
}

// writeError maps err onto its status code. Server-side failures are logged
// and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		var storageErr *mangacontent.StorageError
		if errors.As(err, &storageErr) {
			slog.ErrorContext(r.Context(), "Storage failure",
				"backend", storageErr.Backend, "key", storageErr.Key, "op", storageErr.Op,
				"path", r.URL.Path, "error", err)
		} else {
			slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		}
	}
	writeMessage(w, r, status, messageFor(err, status))
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Message: message})
}
