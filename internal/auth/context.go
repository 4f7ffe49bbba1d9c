package auth

import "context"

// Method identifies how a request was authenticated.
type Method string

const (
	MethodSession Method = "session"
	MethodToken   Method = "token"
)

// AuthenticatedContext is the per-request identity handed to the access
// gate and downstream handlers. Exactly one of Principal or Claims is set.
type AuthenticatedContext struct {
	Method    Method
	Principal *Principal
	Claims    *VerifiedClaims
	Roles     RoleSet
}

func FromPrincipal(p *Principal) *AuthenticatedContext {
	if p == nil {
		return nil
	}
	return &AuthenticatedContext{
		Method:    MethodSession,
		Principal: p,
		Roles:     p.Roles.Clone(),
	}
}

func FromClaims(c *VerifiedClaims) *AuthenticatedContext {
	if c == nil {
		return nil
	}
	return &AuthenticatedContext{
		Method: MethodToken,
		Claims: c,
		Roles:  c.Roles(),
	}
}

// Authenticated reports whether resolution produced a Principal or claims.
func (a *AuthenticatedContext) Authenticated() bool {
	return a != nil && (a.Principal != nil || a.Claims != nil)
}

// Subject returns a stable identifier for logs and responses.
func (a *AuthenticatedContext) Subject() string {
	switch {
	case a == nil:
		return ""
	case a.Principal != nil:
		return a.Principal.ID
	case a.Claims != nil:
		return a.Claims.Subject
	}
	return ""
}

// Name returns a human-readable name for the caller.
func (a *AuthenticatedContext) Name() string {
	switch {
	case a == nil:
		return ""
	case a.Principal != nil:
		return a.Principal.DisplayName
	case a.Claims != nil:
		if a.Claims.Email != "" {
			return a.Claims.Email
		}
		return a.Claims.Subject
	}
	return ""
}

// unexported, collision-proof context key
type authContextKeyType struct{}

var authContextKey = authContextKeyType{}

func WithContext(ctx context.Context, ac *AuthenticatedContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// FromContext extracts the authenticated context attached by middleware.
func FromContext(ctx context.Context) (*AuthenticatedContext, bool) {
	ac, ok := ctx.Value(authContextKey).(*AuthenticatedContext)
	return ac, ok && ac != nil
}
