package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/auth/principal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records lookups and never writes.
type countingStore struct {
	principal.Store
	calls int
}

func (s *countingStore) FindByEmail(ctx context.Context, email string) (*auth.Principal, error) {
	s.calls++
	return s.Store.FindByEmail(ctx, email)
}

// slowStore blocks until the context is done.
type slowStore struct{}

func (slowStore) FindByEmail(ctx context.Context, _ string) (*auth.Principal, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type failingStore struct{ err error }

func (s failingStore) FindByEmail(context.Context, string) (*auth.Principal, error) {
	return nil, s.err
}

func newStore(t *testing.T) *principal.MemoryStore {
	t.Helper()
	s, err := principal.NewMemoryStore(
		auth.Principal{ID: "p-1", Email: "a@x.com", DisplayName: "Alice", Roles: auth.NewRoleSet("USER")},
		auth.Principal{ID: "p-2", Email: "norole@x.com", DisplayName: "Nora"},
	)
	require.NoError(t, err)
	return s
}

func identity(attrs map[string]any) *auth.ExternalIdentity {
	return &auth.ExternalIdentity{Provider: "google", Subject: "sub", Attributes: attrs}
}

func TestResolve_KnownPrincipal(t *testing.T) {
	r := NewStoreResolver(newStore(t), time.Second)

	p, err := r.Resolve(context.Background(), identity(map[string]any{"email": "a@x.com"}))
	require.NoError(t, err)

	assert.Equal(t, &auth.Principal{
		ID:          "p-1",
		Email:       "a@x.com",
		DisplayName: "Alice",
		Roles:       auth.NewRoleSet("USER"),
	}, p)
}

func TestResolve_IgnoresProviderRoles(t *testing.T) {
	r := NewStoreResolver(newStore(t), time.Second)

	p, err := r.Resolve(context.Background(), identity(map[string]any{
		"email":  "a@x.com",
		"name":   "Mallory",
		"roles":  []any{"ADMIN"},
		"groups": []any{"ADMIN"},
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"USER"}, p.Roles.Slice())
	assert.Equal(t, "Alice", p.DisplayName)
}

func TestResolve_EmptyRolesAreValid(t *testing.T) {
	r := NewStoreResolver(newStore(t), 0)

	p, err := r.Resolve(context.Background(), identity(map[string]any{"email": "norole@x.com"}))
	require.NoError(t, err)
	assert.Empty(t, p.Roles)
}

func TestResolve_UnknownPrincipal(t *testing.T) {
	store := &countingStore{Store: newStore(t)}
	r := NewStoreResolver(store, time.Second)

	for _, email := range []string{"b@x.com", "A@X.COM", "a@x.com.evil"} {
		p, err := r.Resolve(context.Background(), identity(map[string]any{"email": email}))
		assert.Nil(t, p)
		require.ErrorIs(t, err, auth.ErrUnknownPrincipal)

		var upe *auth.UnknownPrincipalError
		require.ErrorAs(t, err, &upe)
		assert.Equal(t, email, upe.Email)
	}

	assert.Equal(t, 3, store.calls)

	// nothing was provisioned as a side effect
	p, _ := store.FindByEmail(context.Background(), "b@x.com")
	assert.Nil(t, p)
}

func TestResolve_MissingEmail(t *testing.T) {
	r := NewStoreResolver(newStore(t), time.Second)

	_, err := r.Resolve(context.Background(), identity(map[string]any{"name": "Alice"}))
	assert.ErrorIs(t, err, auth.ErrMissingEmail)

	_, err = r.Resolve(context.Background(), nil)
	assert.Error(t, err)
}

func TestResolve_Timeout(t *testing.T) {
	r := NewStoreResolver(slowStore{}, 20*time.Millisecond)

	start := time.Now()
	_, err := r.Resolve(context.Background(), identity(map[string]any{"email": "a@x.com"}))

	assert.ErrorIs(t, err, auth.ErrTimeout)
	assert.ErrorIs(t, err, auth.ErrStoreUnavailable)
	assert.True(t, auth.Retryable(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolve_StoreFailure(t *testing.T) {
	r := NewStoreResolver(failingStore{err: errors.New("connection refused")}, time.Second)

	_, err := r.Resolve(context.Background(), identity(map[string]any{"email": "a@x.com"}))
	assert.ErrorIs(t, err, auth.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, auth.ErrUnknownPrincipal)
}
