package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"auth-gateway/internal/auth"

	"github.com/google/uuid"
)

// unexported, collision-proof context keys
type requestIDKeyType struct{}
type authErrKeyType struct{}

var (
	requestIDKey = requestIDKeyType{}
	authErrKey   = authErrKeyType{}
)

const RequestIDHeader = "X-Request-ID"

// RequestIDFromContext extracts the request id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID propagates an inbound X-Request-ID or assigns a new one.
func RequestID(w http.ResponseWriter, r *http.Request, next http.Handler) {
	id := r.Header.Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)
	next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
}

// withAuthError records an infrastructure failure that prevented
// authentication, so a later denial can be reported as retryable.
func withAuthError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, authErrKey, err)
}

func authErrorFromContext(ctx context.Context) error {
	err, _ := ctx.Value(authErrKey).(error)
	return err
}

func attach(r *http.Request, ac *auth.AuthenticatedContext) *http.Request {
	return r.WithContext(auth.WithContext(r.Context(), ac))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
