package middleware

import (
	"errors"
	"net/http"
	"strings"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/auth/policy"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/metrics"
)

// AccessGate is the terminal decision point of the chain. It consults the
// route policy with whatever identity earlier interceptors attached.
type AccessGate struct {
	Gate    *policy.Gate
	Metrics *metrics.Metrics
	// LoginPath, when set, receives browser requests denied as unauthenticated.
	LoginPath string
	Realm     string
}

func NewAccessGate(g *policy.Gate, m *metrics.Metrics, loginPath, realm string) *AccessGate {
	return &AccessGate{Gate: g, Metrics: m, LoginPath: loginPath, Realm: realm}
}

func (a *AccessGate) Intercept(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ac, _ := auth.FromContext(r.Context())
	d := a.Gate.Authorize(r.URL.Path, ac)
	a.Metrics.GateDecision(d.Allowed, d.ReasonLabel())

	if d.Allowed {
		next.ServeHTTP(w, attach(r, d.Identity))
		return
	}

	logger.Info("access denied", map[string]any{
		"request_id": RequestIDFromContext(r.Context()),
		"path":       r.URL.Path,
		"pattern":    d.Pattern,
		"reason":     d.ReasonLabel(),
		"subject":    ac.Subject(),
	})

	if errors.Is(d.Reason, auth.ErrInsufficientRole) {
		writeError(w, http.StatusForbidden, "insufficient role")
		return
	}

	if err := authErrorFromContext(r.Context()); err != nil && auth.Retryable(err) {
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "authentication temporarily unavailable")
		return
	}

	if a.LoginPath != "" && r.Method == http.MethodGet && wantsHTML(r) {
		http.Redirect(w, r, a.LoginPath, http.StatusFound)
		return
	}

	w.Header().Set("WWW-Authenticate", `Bearer realm="`+a.Realm+`"`)
	writeError(w, http.StatusUnauthorized, "authentication required")
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
