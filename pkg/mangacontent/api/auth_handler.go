package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/manga-content/pkg/mangacontent"
)

// AuthHandler issues bearer tokens
type AuthHandler struct {
	auth *Authenticator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Routes returns the routes for auth
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/token", h.IssueToken)
	return r
}

// IssueToken exchanges an email and password for a signed token
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, r, mangacontent.Invalid("email", "email and password are required"))
		return
	}

	identity, token, expiresAt, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Token issued", "user_id", identity.ID.String())
	render.JSON(w, r, TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      identity,
	})
}

// NewRouter mounts the manga and auth routes
func NewRouter(service mangacontent.Service, auth *Authenticator) chi.Router {
	r := chi.NewRouter()
	r.Mount("/manga", NewMangaHandler(service, auth).Routes())
	r.Mount("/auth", NewAuthHandler(auth).Routes())
	return r
}
