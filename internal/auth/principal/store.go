package principal

import (
	"context"

	"auth-gateway/internal/auth"
)

// Store looks up pre-provisioned principals. The gateway only ever reads
// from it; provisioning happens out of band.
type Store interface {
	// FindByEmail returns the principal whose email exactly matches, or
	// (nil, nil) when none exists.
	FindByEmail(ctx context.Context, email string) (*auth.Principal, error)
}
