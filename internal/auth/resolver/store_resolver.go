package resolver

import (
	"context"
	"errors"
	"time"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/auth/principal"
	"auth-gateway/internal/logger"
)

// StoreResolver resolves identities against the principal store.
// Registration is closed: an identity with no provisioned principal is
// refused, never created. Roles always come from the store, never from
// provider attributes.
type StoreResolver struct {
	store   principal.Store
	timeout time.Duration
}

// NewStoreResolver returns a resolver bounding each lookup by timeout.
// A zero timeout leaves the caller's deadline in charge.
func NewStoreResolver(store principal.Store, timeout time.Duration) *StoreResolver {
	return &StoreResolver{store: store, timeout: timeout}
}

func (r *StoreResolver) Resolve(
	ctx context.Context,
	identity *auth.ExternalIdentity,
) (*auth.Principal, error) {

	if identity == nil {
		return nil, errors.New("identity is nil")
	}

	email := identity.Email()
	if email == "" {
		return nil, auth.ErrMissingEmail
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	p, err := r.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, auth.WrapInfra(auth.ErrStoreUnavailable, err)
	}

	if p == nil {
		logger.Warn("login refused: principal not registered", map[string]any{
			"provider": identity.Provider,
			"email":    email,
		})
		return nil, &auth.UnknownPrincipalError{Email: email}
	}

	return p, nil
}
