package middleware

import (
	"context"
	"net/http"
	"time"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/session"
)

// SessionAuthenticator attaches the principal of a valid session cookie.
// Requests without a usable session continue unauthenticated; the access
// gate decides whether that is acceptable.
type SessionAuthenticator struct {
	Store   session.Store
	Timeout time.Duration
}

func NewSessionAuthenticator(store session.Store, timeout time.Duration) *SessionAuthenticator {
	return &SessionAuthenticator{Store: store, Timeout: timeout}
}

func (a *SessionAuthenticator) Intercept(w http.ResponseWriter, r *http.Request, next http.Handler) {
	// 1. Read session cookie
	sessionID := session.ReadCookie(r)
	if sessionID == "" {
		next.ServeHTTP(w, r)
		return
	}

	// 2. Load session, bounded by the store timeout
	ctx := r.Context()
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	sess, err := a.Store.Get(ctx, sessionID)
	if err != nil {
		logger.Error("session lookup failed", map[string]any{
			"request_id": RequestIDFromContext(r.Context()),
			"error":      err,
		})
		infraErr := auth.WrapInfra(auth.ErrStoreUnavailable, err)
		next.ServeHTTP(w, r.WithContext(withAuthError(r.Context(), infraErr)))
		return
	}

	// 3. Unknown or expired sessions are treated as anonymous
	if sess == nil || sess.Principal == nil || time.Now().After(sess.ExpiresAt) {
		next.ServeHTTP(w, r)
		return
	}

	// 4. Attach principal to context
	next.ServeHTTP(w, attach(r, auth.FromPrincipal(sess.Principal)))
}
