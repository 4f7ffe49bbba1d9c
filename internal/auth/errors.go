package auth

import (
	"context"
	"errors"
	"fmt"
)

// Login resolution errors.
var (
	ErrUnknownPrincipal = errors.New("principal not registered")
	ErrMissingEmail     = errors.New("external identity has no email claim")
)

// Token errors.
var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrExpiredToken    = errors.New("token expired")
	ErrUntrustedIssuer = errors.New("untrusted issuer")
	ErrKeyFetch        = errors.New("signing key fetch failed")
)

// Authorization errors.
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrInsufficientRole = errors.New("insufficient role")
)

// Infrastructure errors.
var (
	ErrTimeout          = errors.New("operation timed out")
	ErrStoreUnavailable = errors.New("principal store unavailable")
)

// UnknownPrincipalError reports a login for an email with no local account.
type UnknownPrincipalError struct {
	Email string
}

func (e *UnknownPrincipalError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownPrincipal, e.Email)
}

func (e *UnknownPrincipalError) Is(target error) bool {
	return target == ErrUnknownPrincipal
}

// Retryable reports whether err is an infrastructure failure that the
// caller may retry, as opposed to a credential or authorization failure.
func Retryable(err error) bool {
	return errors.Is(err, ErrKeyFetch) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrStoreUnavailable)
}

// WrapInfra tags an infrastructure error with kind and, when the context
// deadline was hit, with ErrTimeout.
func WrapInfra(kind error, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %v", kind, ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", kind, err)
}
