package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/tendant/manga-content/pkg/mangacontent"
)

type identityKey struct{}

// WithIdentity stores the authenticated requester in ctx
func WithIdentity(ctx context.Context, identity *mangacontent.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the authenticated requester, or nil for anonymous requests
func IdentityFromContext(ctx context.Context) *mangacontent.Identity {
	identity, _ := ctx.Value(identityKey{}).(*mangacontent.Identity)
	return identity
}

// Authenticator verifies bearer tokens and resolves them to current identities.
// The role always comes from the directory, never from the token.
type Authenticator struct {
	tokens    *jwtauth.JWTAuth
	directory mangacontent.Directory
	ttl       time.Duration
	now       func() time.Time
}

// NewAuthenticator creates an authenticator issuing tokens valid for ttl
func NewAuthenticator(tokens *jwtauth.JWTAuth, directory mangacontent.Directory, ttl time.Duration) *Authenticator {
	return &Authenticator{
		tokens:    tokens,
		directory: directory,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Required rejects requests without a valid bearer token
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.authenticate(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// Optional lets anonymous requests through. A token that is present must be valid.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		a.Required(next).ServeHTTP(w, r)
	})
}

func (a *Authenticator) authenticate(r *http.Request) (*mangacontent.Identity, error) {
	token, err := jwtauth.VerifyRequest(a.tokens, r, jwtauth.TokenFromHeader)
	if err != nil {
		switch {
		case errors.Is(err, jwtauth.ErrNoTokenFound):
			return nil, &authError{message: "No token, authorization denied"}
		case errors.Is(err, jwtauth.ErrExpired):
			return nil, &authError{message: "Token expired"}
		default:
			return nil, &authError{message: "Token is not valid"}
		}
	}
	if token == nil {
		return nil, &authError{message: "Token is not valid"}
	}

	id, err := uuid.Parse(token.Subject())
	if err != nil {
		return nil, &authError{message: "Token is not valid"}
	}

	identity, err := a.directory.Lookup(r.Context(), id)
	if err != nil {
		if errors.Is(err, mangacontent.ErrNotFound) {
			return nil, &authError{message: "User not found for this token"}
		}
		return nil, err
	}
	return &identity, nil
}

// IssueToken signs a token whose subject is the identity id
func (a *Authenticator) IssueToken(identity mangacontent.Identity) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.ttl)

	claims := map[string]interface{}{
		"sub": identity.ID.String(),
	}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, expiresAt)

	_, token, err := a.tokens.Encode(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Login checks credentials against the directory and issues a token
func (a *Authenticator) Login(ctx context.Context, email, password string) (mangacontent.Identity, string, time.Time, error) {
	identity, err := a.directory.CheckCredentials(ctx, email, password)
	if err != nil {
		return mangacontent.Identity{}, "", time.Time{}, err
	}
	token, expiresAt, err := a.IssueToken(identity)
	if err != nil {
		return mangacontent.Identity{}, "", time.Time{}, err
	}
	return identity, token, expiresAt, nil
}
