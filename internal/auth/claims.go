package auth

import "time"

// VerifiedClaims is the payload of a bearer token that survived signature,
// expiry and issuer checks.
type VerifiedClaims struct {
	Subject   string
	Issuer    string
	Audience  []string
	Email     string
	Scopes    []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Raw       map[string]any
}

// ScopeRolePrefix is prepended to each token scope to form a role name.
const ScopeRolePrefix = "SCOPE_"

// Roles derives the role set granted by the token's scopes.
func (c *VerifiedClaims) Roles() RoleSet {
	s := make(RoleSet, len(c.Scopes))
	for _, scope := range c.Scopes {
		if scope != "" {
			s[ScopeRolePrefix+scope] = struct{}{}
		}
	}
	return s
}
