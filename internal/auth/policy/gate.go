package policy

import (
	"errors"

	"auth-gateway/internal/auth"
)

// Decision is the outcome of an access check. When Allowed, Identity is
// the context to attach downstream (nil for anonymous public access).
// When denied, Reason is auth.ErrUnauthenticated or auth.ErrInsufficientRole.
type Decision struct {
	Allowed     bool
	Identity    *auth.AuthenticatedContext
	Reason      error
	Requirement Requirement
	Pattern     string
}

// ReasonLabel is a short, stable label for logs and metrics.
func (d Decision) ReasonLabel() string {
	switch {
	case d.Allowed:
		return d.Requirement.Kind.String()
	case errors.Is(d.Reason, auth.ErrInsufficientRole):
		return "insufficient_role"
	default:
		return "unauthenticated"
	}
}

// Gate is the terminal access decision. It holds only the immutable route
// policy, so identical inputs always produce identical decisions.
type Gate struct {
	policy *RoutePolicy
}

func NewGate(p *RoutePolicy) *Gate {
	if p == nil {
		p = Default()
	}
	return &Gate{policy: p}
}

func (g *Gate) Authorize(route string, ac *auth.AuthenticatedContext) Decision {
	req, pattern := g.policy.Match(route)
	d := Decision{Requirement: req, Pattern: pattern}

	if !ac.Authenticated() {
		ac = nil
	}

	switch req.Kind {
	case Public:
		d.Allowed = true
		d.Identity = ac

	case RoleIn:
		switch {
		case ac == nil:
			d.Reason = auth.ErrUnauthenticated
		case ac.Roles.Intersects(req.Roles):
			d.Allowed = true
			d.Identity = ac
		default:
			d.Reason = auth.ErrInsufficientRole
		}

	default:
		if ac == nil {
			d.Reason = auth.ErrUnauthenticated
		} else {
			d.Allowed = true
			d.Identity = ac
		}
	}

	return d
}
