package session

import (
	"context"
	"time"

	"auth-gateway/internal/auth"
)

// Session represents a logged-in browser session. It carries the principal
// resolved at login so later requests need no store lookup.
type Session struct {
	SessionID string          `json:"session_id"`
	Principal *auth.Principal `json:"principal"`
	Provider  string          `json:"provider"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"` // absolute expiry time
}

// Store defines how sessions are stored and retrieved.
// Get returns (nil, nil) for unknown or expired sessions.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}
