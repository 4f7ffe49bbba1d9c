package handler

import (
	"errors"
	"net/http"
	"time"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/auth/resolver"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/metrics"
	"auth-gateway/internal/session"

	"github.com/gin-gonic/gin"
)

type Options struct {
	SessionTTL   time.Duration
	CookieSecure bool
	Metrics      *metrics.Metrics
}

type Handler struct {
	providers    *provider.Registry
	sessionStore session.Store
	resolver     resolver.Resolver
	opts         Options
}

func NewHandler(
	registry *provider.Registry,
	sessionStore session.Store,
	resolver resolver.Resolver,
	opts Options,
) *Handler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	return &Handler{
		providers:    registry,
		sessionStore: sessionStore,
		resolver:     resolver,
		opts:         opts,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/oauth/login/:provider", h.login)
	r.GET("/oauth/callback/:provider", h.callback)
	r.POST("/auth/logout", h.Logout)
}

func (h *Handler) cookieOptions() session.CookieOptions {
	return session.CookieOptions{
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) login(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	state, err := generateState(c, h.opts.CookieSecure)
	if err != nil {
		logger.Error("failed to generate oauth state", map[string]any{"error": err})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to start login",
		})
		return
	}
	_, codeChallenge := generatePKCE(c, h.opts.CookieSecure)

	authURL := p.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	if !validateState(c) {
		h.opts.Metrics.Login("invalid_state")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	// the provider refused or the user cancelled
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oidc callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		h.opts.Metrics.Login("provider_error")
		clearFlowCookies(c, h.opts.CookieSecure)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
		})
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oidc callback missing code and error", nil)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "missing code",
		})
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		h.opts.Metrics.Login("invalid_state")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}

	// state and verifier are single use
	clearFlowCookies(c, h.opts.CookieSecure)

	identity, err := p.ExchangeCode(
		c.Request.Context(),
		code,
		codeVerifier,
	)
	if err != nil {
		logger.Warn("oauth code exchange failed", map[string]any{
			"provider": providerName,
			"error":    err,
		})
		h.opts.Metrics.Login("exchange_failed")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
		})
		return
	}

	principal, err := h.resolver.Resolve(c.Request.Context(), identity)
	if err != nil {
		h.rejectResolution(c, providerName, err)
		return
	}

	sessionID, err := session.GenerateID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to create session",
		})
		return
	}

	now := time.Now()
	expiresAt := now.Add(h.opts.SessionTTL)

	sess := session.Session{
		SessionID: sessionID,
		Principal: principal,
		Provider:  providerName,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	if err := h.sessionStore.Create(c.Request.Context(), sess); err != nil {
		logger.Error("failed to persist session", map[string]any{"error": err})
		h.opts.Metrics.Login("store_unavailable")
		c.Header("Retry-After", "5")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "failed to persist session",
		})
		return
	}

	session.SetCookie(c.Writer, sessionID, expiresAt, h.cookieOptions())

	logger.Info("login success", map[string]any{
		"provider":     providerName,
		"principal_id": principal.ID,
		"ip":           c.ClientIP(),
	})
	h.opts.Metrics.Login("success")

	c.JSON(http.StatusOK, gin.H{
		"status":    "authenticated",
		"principal": principal,
	})
}

func (h *Handler) rejectResolution(c *gin.Context, providerName string, err error) {
	switch {
	case errors.Is(err, auth.ErrUnknownPrincipal):
		h.opts.Metrics.Login("unknown_principal")
		c.JSON(http.StatusForbidden, gin.H{
			"error": "not registered",
		})

	case errors.Is(err, auth.ErrMissingEmail):
		h.opts.Metrics.Login("missing_email")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
		})

	case auth.Retryable(err):
		logger.Error("principal store unavailable", map[string]any{
			"provider": providerName,
			"error":    err,
		})
		h.opts.Metrics.Login("store_unavailable")
		c.Header("Retry-After", "5")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "temporarily unavailable",
		})

	default:
		logger.Error("failed to resolve principal", map[string]any{
			"provider": providerName,
			"error":    err,
		})
		h.opts.Metrics.Login("error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to resolve user",
		})
	}
}

// Logout deletes the server session and clears the cookie. It always
// succeeds so repeated calls are harmless.
func (h *Handler) Logout(c *gin.Context) {
	if sid := session.ReadCookie(c.Request); sid != "" {
		// best-effort; the session expires on its own
		if err := h.sessionStore.Delete(c.Request.Context(), sid); err != nil {
			logger.Warn("failed to delete session", map[string]any{"error": err})
		}
		logger.Info("logout", map[string]any{"ip": c.ClientIP()})
	}

	session.ClearCookie(c.Writer, h.cookieOptions())

	c.Status(http.StatusNoContent)
}
