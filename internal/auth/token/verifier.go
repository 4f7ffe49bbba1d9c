package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/metrics"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAlgorithms are the asymmetric algorithms accepted for bearer tokens.
var DefaultAlgorithms = []string{
	"RS256", "RS384", "RS512",
	"PS256", "PS384", "PS512",
	"ES256", "ES384", "ES512",
}

type Config struct {
	// Issuer is the only trusted iss value.
	Issuer string
	// Audience, when set, must appear in the token's aud claim.
	Audience   string
	Algorithms []string
	Leeway     time.Duration
}

// Verifier validates bearer JWTs against the issuer's published keys.
// It holds no per-request state and is safe for concurrent use.
type Verifier struct {
	keys    KeyProvider
	issuer  string
	parser  *jwt.Parser
	peek    *jwt.Parser
	metrics *metrics.Metrics
}

func NewVerifier(keys KeyProvider, cfg Config, m *metrics.Metrics) *Verifier {
	algs := cfg.Algorithms
	if len(algs) == 0 {
		algs = DefaultAlgorithms
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(algs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &Verifier{
		keys:    keys,
		issuer:  cfg.Issuer,
		parser:  jwt.NewParser(opts...),
		peek:    jwt.NewParser(),
		metrics: m,
	}
}

// Verify checks signature, expiry, issuer and structure, returning the
// decoded claims. Key-set fetch failures wrap auth.ErrKeyFetch so callers
// can tell them apart from bad tokens.
func (v *Verifier) Verify(ctx context.Context, raw string) (*auth.VerifiedClaims, error) {
	claims, err := v.verify(ctx, raw)
	v.metrics.TokenVerification(resultLabel(err))
	return claims, err
}

func (v *Verifier) verify(ctx context.Context, raw string) (*auth.VerifiedClaims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", auth.ErrInvalidToken)
	}

	// Reject foreign issuers before touching the key set, so their
	// unknown key ids cannot force refreshes.
	unverified := jwt.MapClaims{}
	if _, _, err := v.peek.ParseUnverified(raw, unverified); err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	if iss, _ := unverified.GetIssuer(); iss != v.issuer {
		return nil, fmt.Errorf("%w: %q", auth.ErrUntrustedIssuer, iss)
	}

	mc := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(raw, mc, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		return nil, classify(err)
	}

	return toVerifiedClaims(mc), nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, auth.ErrKeyFetch):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", auth.ErrExpiredToken, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %v", auth.ErrUntrustedIssuer, err)
	case errors.Is(err, auth.ErrInvalidToken):
		return err
	default:
		return fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, auth.ErrKeyFetch):
		return "key_fetch_error"
	case errors.Is(err, auth.ErrExpiredToken):
		return "expired"
	case errors.Is(err, auth.ErrUntrustedIssuer):
		return "untrusted_issuer"
	default:
		return "invalid"
	}
}

func toVerifiedClaims(mc jwt.MapClaims) *auth.VerifiedClaims {
	out := &auth.VerifiedClaims{Raw: map[string]any(mc)}

	out.Subject, _ = mc.GetSubject()
	out.Issuer, _ = mc.GetIssuer()
	if aud, err := mc.GetAudience(); err == nil {
		out.Audience = aud
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	out.Email, _ = mc["email"].(string)
	out.Scopes = scopes(mc)

	return out
}

// scopes reads the space-delimited "scope" claim, or the "scp" claim as
// either a list or a string.
func scopes(mc jwt.MapClaims) []string {
	if s, ok := mc["scope"].(string); ok {
		return strings.Fields(s)
	}

	switch scp := mc["scp"].(type) {
	case string:
		return strings.Fields(scp)
	case []any:
		out := make([]string, 0, len(scp))
		for _, v := range scp {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
