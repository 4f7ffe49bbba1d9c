package token

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// DiscoverJWKSURL reads jwks_uri from the issuer's OpenID configuration.
// The document must name the same issuer it was fetched for, so a key set
// published under another issuer is never trusted.
func DiscoverJWKSURL(ctx context.Context, issuer string) (string, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return "", fmt.Errorf("oidc discovery failed: %w", err)
	}

	var doc struct {
		JWKSURL string `json:"jwks_uri"`
	}
	if err := provider.Claims(&doc); err != nil {
		return "", fmt.Errorf("oidc discovery document parse failed: %w", err)
	}
	if doc.JWKSURL == "" {
		return "", fmt.Errorf("oidc discovery document for %s has no jwks_uri", issuer)
	}

	return doc.JWKSURL, nil
}
