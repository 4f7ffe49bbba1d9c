package app

import (
	"context"
	"fmt"
	"time"

	"auth-gateway/internal/auth/handler"
	"auth-gateway/internal/auth/policy"
	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/auth/provider/oidc"
	"auth-gateway/internal/auth/resolver"
	"auth-gateway/internal/auth/token"
	"auth-gateway/internal/config"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/metrics"
	"auth-gateway/internal/session"

	"github.com/cenkalti/backoff/v5"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	realm             = "auth-gateway"
	discoveryDeadline = 30 * time.Second
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	router, err := buildRouter(ctx, cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	return router, infra.Close, nil
}

func buildRouter(ctx context.Context, cfg config.Config, infra *Infra) (*gin.Engine, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	routePolicy := policy.Default()
	if cfg.RoutePolicyFile != "" {
		p, err := policy.LoadFile(cfg.RoutePolicyFile)
		if err != nil {
			return nil, err
		}
		routePolicy = p
	}

	jwksURL, err := resolveJWKSURL(ctx, cfg)
	if err != nil {
		return nil, err
	}

	keys := token.NewKeySet(jwksURL,
		token.WithFetchTimeout(cfg.KeyFetchTimeout),
		token.WithTTL(cfg.KeyCacheTTL),
		token.WithMinRefreshInterval(cfg.KeyRefreshMinInterval),
		token.WithMetrics(m),
	)
	verifier := token.NewVerifier(keys, token.Config{
		Issuer:   cfg.OIDCIssuer,
		Audience: cfg.TokenAudience,
	}, m)

	loginProvider, err := oidc.New(ctx, oidc.Options{
		Name:         cfg.OIDCProvider,
		Issuer:       cfg.OIDCIssuer,
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
	})
	if err != nil {
		return nil, err
	}

	sessionStore := session.NewRedisStore(infra.Redis.Client)
	providers := provider.NewRegistry(loginProvider)

	authHandler := handler.NewHandler(
		providers,
		sessionStore,
		resolver.NewStoreResolver(infra.Principals, cfg.StoreTimeout),
		handler.Options{
			SessionTTL:   cfg.SessionTTL,
			CookieSecure: cfg.CookieSecure,
			Metrics:      m,
		},
	)

	router := newRouter(routerDeps{
		Sessions:     sessionStore,
		StoreTimeout: cfg.StoreTimeout,
		Verifier:     verifier,
		Policy:       routePolicy,
		Metrics:      m,
		Gatherer:     registry,
		Auth:         authHandler,
		LoginPath:    "/oauth/login/" + cfg.OIDCProvider,
	})

	logger.Info("router ready", map[string]any{
		"issuer":      cfg.OIDCIssuer,
		"providers":   providers.Names(),
		"jwks_url":    jwksURL,
		"route_rules": len(routePolicy.Rules()),
	})

	return router, nil
}

// resolveJWKSURL prefers the configured key set URL and otherwise discovers
// it from the issuer, retrying while the provider comes up.
func resolveJWKSURL(ctx context.Context, cfg config.Config) (string, error) {
	if cfg.JWKSURL != "" {
		return cfg.JWKSURL, nil
	}

	url, err := backoff.Retry(ctx, func() (string, error) {
		u, err := token.DiscoverJWKSURL(ctx, cfg.OIDCIssuer)
		if err != nil {
			logger.Warn("oidc discovery failed", map[string]any{"error": err})
		}
		return u, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(discoveryDeadline),
	)
	if err != nil {
		return "", fmt.Errorf("discover jwks_uri for %s: %w", cfg.OIDCIssuer, err)
	}
	return url, nil
}
