package resolver

import (
	"context"

	"auth-gateway/internal/auth"
)

// Resolver determines which local principal an external identity belongs to.
// It is the ONLY place where identity-to-principal mapping logic lives.
type Resolver interface {
	Resolve(
		ctx context.Context,
		identity *auth.ExternalIdentity,
	) (*auth.Principal, error)
}
