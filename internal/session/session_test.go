package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auth-gateway/internal/auth"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func testSession(id string, ttl time.Duration) Session {
	return Session{
		SessionID: id,
		Provider:  "google",
		Principal: &auth.Principal{
			ID:          "p-1",
			Email:       "a@x.com",
			DisplayName: "Alice",
			Roles:       auth.NewRoleSet("USER"),
		},
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
}

func TestRedisStore_CreateGetDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testSession("sid-1", time.Hour)))
	assert.True(t, mr.Exists("session:sid-1"))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL("session:sid-1").Seconds(), 5)

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a@x.com", got.Principal.Email)
	assert.Equal(t, []string{"USER"}, got.Principal.Roles.Slice())

	require.NoError(t, store.Delete(ctx, "sid-1"))
	got, err = store.Get(ctx, "sid-1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_CreateValidation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	s := testSession("", time.Hour)
	assert.Error(t, store.Create(ctx, s))

	s = testSession("sid", time.Hour)
	s.Principal = nil
	assert.Error(t, store.Create(ctx, s))

	assert.Error(t, store.Create(ctx, testSession("sid", -time.Minute)))
}

func TestRedisStore_Expiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testSession("sid-2", time.Minute)))
	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "sid-2")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "sid")
	assert.Error(t, err)
}

func TestCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, "sid-1", time.Now().Add(time.Hour), CookieOptions{Secure: true})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	assert.Equal(t, "sid-1", ReadCookie(req))

	dev := httptest.NewRecorder()
	SetCookie(dev, "sid-2", time.Now().Add(time.Hour), CookieOptions{})
	assert.Equal(t, DevCookieName, dev.Result().Cookies()[0].Name)

	cleared := httptest.NewRecorder()
	ClearCookie(cleared, CookieOptions{Secure: true})
	assert.Equal(t, -1, cleared.Result().Cookies()[0].MaxAge)

	assert.Empty(t, ReadCookie(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestGenerateID(t *testing.T) {
	a, err := GenerateID()
	require.NoError(t, err)
	b, err := GenerateID()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}
