package app

import (
	"net/http"
	"time"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/auth/handler"
	"auth-gateway/internal/auth/policy"
	"auth-gateway/internal/metrics"
	"auth-gateway/internal/middleware"
	"auth-gateway/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type routerDeps struct {
	Sessions     session.Store
	StoreTimeout time.Duration
	Verifier     middleware.TokenVerifier
	Policy       *policy.RoutePolicy
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Auth         *handler.Handler
	LoginPath    string
}

func newRouter(d routerDeps) *gin.Engine {
	chain := middleware.Chain(
		middleware.RequestID,
		middleware.NewSessionAuthenticator(d.Sessions, d.StoreTimeout).Intercept,
		middleware.NewBearerAuthenticator(d.Verifier, realm).Intercept,
		middleware.NewAccessGate(policy.NewGate(d.Policy), d.Metrics, d.LoginPath, realm).Intercept,
	)

	router := gin.New()
	router.Use(gin.Recovery())

	// every route, including unmatched ones, passes the access gate
	router.Use(middleware.Gin(chain))

	d.Auth.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))

	router.GET("/public", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "public content"})
	})

	router.GET("/protected", func(c *gin.Context) {
		ac, _ := auth.FromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"message": "Hello, " + ac.Name()})
	})

	router.GET("/api/me", me)

	router.GET("/admin/routes", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"routes": describeRules(d.Policy)})
	})

	return router
}

type meResponse struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Email  string      `json:"email,omitempty"`
	Method auth.Method `json:"method"`
	Roles  []string    `json:"roles"`
}

func me(c *gin.Context) {
	ac, ok := auth.FromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	resp := meResponse{
		ID:     ac.Subject(),
		Name:   ac.Name(),
		Method: ac.Method,
		Roles:  ac.Roles.Slice(),
	}
	switch {
	case ac.Principal != nil:
		resp.Email = ac.Principal.Email
	case ac.Claims != nil:
		resp.Email = ac.Claims.Email
	}

	c.JSON(http.StatusOK, resp)
}

type ruleView struct {
	Pattern string   `json:"pattern"`
	Access  string   `json:"access"`
	Roles   []string `json:"roles,omitempty"`
}

func describeRules(p *policy.RoutePolicy) []ruleView {
	rules := p.Rules()
	out := make([]ruleView, 0, len(rules))
	for _, r := range rules {
		out = append(out, ruleView{
			Pattern: r.Pattern,
			Access:  r.Requirement.Kind.String(),
			Roles:   r.Requirement.Roles.Slice(),
		})
	}
	return out
}
