package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/logger"
)

// TokenVerifier validates a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*auth.VerifiedClaims, error)
}

// BearerAuthenticator verifies an Authorization: Bearer token and attaches
// its claims. A request without a token passes through untouched; a
// presented token that fails verification is rejected on every route.
type BearerAuthenticator struct {
	Verifier TokenVerifier
	Realm    string
}

func NewBearerAuthenticator(v TokenVerifier, realm string) *BearerAuthenticator {
	return &BearerAuthenticator{Verifier: v, Realm: realm}
}

func (a *BearerAuthenticator) Intercept(w http.ResponseWriter, r *http.Request, next http.Handler) {
	raw, ok := bearerToken(r)
	if !ok {
		next.ServeHTTP(w, r)
		return
	}

	claims, err := a.Verifier.Verify(r.Context(), raw)
	if err != nil {
		a.reject(w, r, err)
		return
	}

	next.ServeHTTP(w, attach(r, auth.FromClaims(claims)))
}

func (a *BearerAuthenticator) reject(w http.ResponseWriter, r *http.Request, err error) {
	fields := map[string]any{
		"request_id": RequestIDFromContext(r.Context()),
		"path":       r.URL.Path,
		"error":      err,
	}

	if auth.Retryable(err) {
		logger.Error("bearer token could not be verified", fields)
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "token verification temporarily unavailable")
		return
	}

	logger.Warn("bearer token rejected", fields)

	desc := "invalid token"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		desc = "token expired"
	case errors.Is(err, auth.ErrUntrustedIssuer):
		desc = "untrusted issuer"
	}

	w.Header().Set("WWW-Authenticate",
		`Bearer realm="`+a.Realm+`", error="invalid_token", error_description="`+desc+`"`)
	writeError(w, http.StatusUnauthorized, desc)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}
