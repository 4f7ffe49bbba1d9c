package auth

import "strings"

// ExternalIdentity represents a verified identity returned by an OIDC
// provider after a completed login. It contains facts only, no decisions,
// and lives only for the duration of one login resolution.
type ExternalIdentity struct {
	Provider   string         // e.g. "google"
	Subject    string         // provider-scoped unique user identifier (sub)
	Attributes map[string]any // raw ID token / userinfo claims
}

// Email returns the unique identifying claim used to locate a Principal.
func (i *ExternalIdentity) Email() string {
	return i.stringAttr("email")
}

// DisplayName returns the provider's name claim, falling back to
// preferred_username and then email.
func (i *ExternalIdentity) DisplayName() string {
	for _, key := range []string{"name", "preferred_username", "email"} {
		if v := i.stringAttr(key); v != "" {
			return v
		}
	}
	return ""
}

func (i *ExternalIdentity) stringAttr(key string) string {
	if i == nil || i.Attributes == nil {
		return ""
	}
	s, _ := i.Attributes[key].(string)
	return strings.TrimSpace(s)
}
