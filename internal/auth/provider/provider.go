package provider

import (
	"context"

	"auth-gateway/internal/auth"
)

// OAuthProvider defines the contract of the login flow adapter.
// Implementations return identity facts only and must not resolve
// principals, grant roles, or manage sessions.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google").
	Name() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code for provider credentials
	// and returns the verified external identity. No auth decisions are made here.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*auth.ExternalIdentity, error)
}
