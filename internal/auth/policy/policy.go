package policy

import (
	"fmt"
	"os"
	"path"
	"strings"

	"auth-gateway/internal/auth"

	"gopkg.in/yaml.v3"
)

// Kind is the access requirement of a route.
type Kind int

const (
	AuthenticatedAny Kind = iota
	Public
	RoleIn
)

func (k Kind) String() string {
	switch k {
	case Public:
		return "public"
	case RoleIn:
		return "role"
	default:
		return "authenticated"
	}
}

type Requirement struct {
	Kind  Kind
	Roles auth.RoleSet // only for RoleIn
}

// Rule binds a route pattern to a requirement. Patterns are exact paths,
// path.Match globs ("*" matches one segment), or a prefix ending in "/**"
// that matches the prefix itself and everything below it.
type Rule struct {
	Pattern     string
	Requirement Requirement
}

func (r Rule) matches(p string) bool {
	if prefix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
		if prefix == "" {
			return true
		}
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	}
	ok, err := path.Match(r.Pattern, p)
	return err == nil && ok
}

// RoutePolicy is an ordered, immutable rule table. The first matching rule
// wins; unmatched routes require authentication.
type RoutePolicy struct {
	rules []Rule
}

func New(rules ...Rule) (*RoutePolicy, error) {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !strings.HasPrefix(r.Pattern, "/") {
			return nil, fmt.Errorf("policy: pattern %q must start with /", r.Pattern)
		}
		if _, err := path.Match(strings.TrimSuffix(r.Pattern, "/**"), "/"); err != nil {
			return nil, fmt.Errorf("policy: pattern %q: %w", r.Pattern, err)
		}
		if r.Requirement.Kind == RoleIn && len(r.Requirement.Roles) == 0 {
			return nil, fmt.Errorf("policy: pattern %q requires at least one role", r.Pattern)
		}
		r.Requirement.Roles = r.Requirement.Roles.Clone()
		out = append(out, r)
	}
	return &RoutePolicy{rules: out}, nil
}

// Default is the gateway's built-in route table.
func Default() *RoutePolicy {
	p, _ := New(
		Rule{Pattern: "/public", Requirement: Requirement{Kind: Public}},
		Rule{Pattern: "/health", Requirement: Requirement{Kind: Public}},
		Rule{Pattern: "/metrics", Requirement: Requirement{Kind: Public}},
		Rule{Pattern: "/oauth/**", Requirement: Requirement{Kind: Public}},
		Rule{Pattern: "/auth/logout", Requirement: Requirement{Kind: Public}},
		Rule{Pattern: "/protected", Requirement: Requirement{Kind: AuthenticatedAny}},
		Rule{Pattern: "/admin/**", Requirement: Requirement{Kind: RoleIn, Roles: auth.NewRoleSet("ADMIN")}},
	)
	return p
}

// Match returns the requirement for a request path. The path is cleaned
// first so dot segments cannot step around a rule.
func (p *RoutePolicy) Match(route string) (Requirement, string) {
	clean := cleanPath(route)
	for _, r := range p.rules {
		if r.matches(clean) {
			return r.Requirement, r.Pattern
		}
	}
	return Requirement{Kind: AuthenticatedAny}, ""
}

func (p *RoutePolicy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

func cleanPath(route string) string {
	if route == "" {
		return "/"
	}
	if route[0] != '/' {
		route = "/" + route
	}
	return path.Clean(route)
}

type fileRule struct {
	Pattern string   `yaml:"pattern"`
	Access  string   `yaml:"access"`
	Roles   []string `yaml:"roles"`
}

type file struct {
	Routes []fileRule `yaml:"routes"`
}

// Parse reads a YAML route table:
//
//	routes:
//	  - pattern: /public
//	    access: public
//	  - pattern: /admin/**
//	    access: role
//	    roles: [ADMIN]
//
// access is one of public, authenticated or role.
func Parse(data []byte) (*RoutePolicy, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("policy: parse: %w", err)
	}

	rules := make([]Rule, 0, len(f.Routes))
	for _, fr := range f.Routes {
		var kind Kind
		switch strings.ToLower(fr.Access) {
		case "public":
			kind = Public
		case "authenticated", "":
			kind = AuthenticatedAny
		case "role":
			kind = RoleIn
		default:
			return nil, fmt.Errorf("policy: pattern %q: unknown access %q", fr.Pattern, fr.Access)
		}
		rules = append(rules, Rule{
			Pattern:     fr.Pattern,
			Requirement: Requirement{Kind: kind, Roles: auth.NewRoleSet(fr.Roles...)},
		})
	}

	return New(rules...)
}

func LoadFile(filename string) (*RoutePolicy, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", filename, err)
	}
	return Parse(data)
}
