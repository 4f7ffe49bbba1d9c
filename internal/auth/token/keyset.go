package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/metrics"

	"github.com/go-jose/go-jose/v4"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// KeyProvider returns the public key for a key id.
type KeyProvider interface {
	Key(ctx context.Context, kid string) (any, error)
}

// KeySet caches a remote JWKS document. Reads are concurrent; refreshes
// are deduplicated so simultaneous misses trigger a single fetch, and each
// refresh replaces the whole key map at once.
type KeySet struct {
	url          string
	client       *http.Client
	fetchTimeout time.Duration
	ttl          time.Duration
	limiter      *rate.Limiter
	metrics      *metrics.Metrics

	mu        sync.RWMutex
	keys      map[string]jose.JSONWebKey
	fetchedAt time.Time

	group singleflight.Group
}

type KeySetOption func(*KeySet)

func WithHTTPClient(c *http.Client) KeySetOption {
	return func(k *KeySet) { k.client = c }
}

// WithFetchTimeout bounds a single JWKS round trip.
func WithFetchTimeout(d time.Duration) KeySetOption {
	return func(k *KeySet) { k.fetchTimeout = d }
}

// WithTTL sets how long a fetched key set is served before it is refreshed.
func WithTTL(d time.Duration) KeySetOption {
	return func(k *KeySet) { k.ttl = d }
}

// WithMinRefreshInterval caps refreshes triggered by unknown key ids.
func WithMinRefreshInterval(d time.Duration) KeySetOption {
	return func(k *KeySet) {
		if d > 0 {
			k.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

func WithMetrics(m *metrics.Metrics) KeySetOption {
	return func(k *KeySet) { k.metrics = m }
}

func NewKeySet(url string, opts ...KeySetOption) *KeySet {
	k := &KeySet{
		url:          url,
		client:       http.DefaultClient,
		fetchTimeout: 5 * time.Second,
		ttl:          time.Hour,
		limiter:      rate.NewLimiter(rate.Every(30*time.Second), 1),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Key returns the verification key for kid, fetching the key set on first
// use, when the cached copy is older than the TTL, or when kid is unknown.
// An empty kid matches only when the set holds exactly one key.
func (k *KeySet) Key(ctx context.Context, kid string) (any, error) {
	key, found, loaded, fresh := k.lookup(kid)

	switch {
	case found && fresh:
		return key.Key, nil

	case found:
		if err := k.refresh(ctx); err != nil {
			logger.Warn("serving stale signing keys", map[string]any{"error": err})
			return key.Key, nil
		}

	case loaded && !k.limiter.Allow():
		return nil, fmt.Errorf("%w: unknown key id %q", auth.ErrInvalidToken, kid)

	default:
		if err := k.refresh(ctx); err != nil {
			return nil, auth.WrapInfra(auth.ErrKeyFetch, err)
		}
	}

	key, found, _, _ = k.lookup(kid)
	if !found {
		return nil, fmt.Errorf("%w: unknown key id %q", auth.ErrInvalidToken, kid)
	}
	return key.Key, nil
}

func (k *KeySet) lookup(kid string) (key jose.JSONWebKey, found, loaded, fresh bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	loaded = !k.fetchedAt.IsZero()
	fresh = loaded && time.Since(k.fetchedAt) < k.ttl

	if kid == "" {
		if len(k.keys) == 1 {
			for _, only := range k.keys {
				return only, true, loaded, fresh
			}
		}
		return jose.JSONWebKey{}, false, loaded, fresh
	}

	key, found = k.keys[kid]
	return key, found, loaded, fresh
}

// refresh fetches the key set once for all concurrent callers. The fetch
// itself is detached from any single caller's cancellation; each caller
// stops waiting when its own context ends.
func (k *KeySet) refresh(ctx context.Context) error {
	ch := k.group.DoChan("jwks", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.fetchTimeout)
		defer cancel()

		keys, err := k.fetch(fetchCtx)
		k.metrics.KeySetRefresh(err)
		if err != nil {
			return nil, err
		}

		k.mu.Lock()
		k.keys = keys
		k.fetchedAt = time.Now()
		k.mu.Unlock()

		logger.Info("signing keys refreshed", map[string]any{
			"url":  k.url,
			"keys": len(keys),
		})
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *KeySet) fetch(ctx context.Context) (map[string]jose.JSONWebKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch key set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key set endpoint returned status %d", resp.StatusCode)
	}

	var doc struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode key set: %w", err)
	}

	keys := make(map[string]jose.JSONWebKey, len(doc.Keys))
	for _, raw := range doc.Keys {
		var key jose.JSONWebKey
		// unsupported key types are skipped rather than failing the set
		if err := key.UnmarshalJSON(raw); err != nil {
			continue
		}
		if !key.Valid() || !key.IsPublic() {
			continue
		}
		if key.Use != "" && key.Use != "sig" {
			continue
		}
		keys[key.KeyID] = key
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("key set at %s has no usable signing keys", k.url)
	}

	return keys, nil
}
