package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OIDC_CLIENT_ID", "client-1")
	t.Setenv("PRINCIPALS_FILE", "principals.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "google", cfg.OIDCProvider)
	assert.Equal(t, "https://accounts.google.com", cfg.OIDCIssuer)
	assert.Equal(t, 5*time.Second, cfg.KeyFetchTimeout)
	assert.Equal(t, time.Hour, cfg.KeyCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.KeyRefreshMinInterval)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OIDC_CLIENT_ID", "client-1")
	t.Setenv("DATABASE_DSN", "postgres://localhost/gateway")
	t.Setenv("OIDC_ISSUER", "https://idp.example.com")
	t.Setenv("KEY_FETCH_TIMEOUT", "750ms")
	t.Setenv("COOKIE_SECURE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://idp.example.com", cfg.OIDCIssuer)
	assert.Equal(t, 750*time.Millisecond, cfg.KeyFetchTimeout)
	assert.False(t, cfg.CookieSecure)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("OIDC_CLIENT_ID", "client-1")
	t.Setenv("PRINCIPALS_FILE", "principals.yaml")
	t.Setenv("STORE_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		AppPort:         "8080",
		OIDCIssuer:      "https://accounts.google.com",
		OIDCClientID:    "client-1",
		PrincipalsFile:  "principals.yaml",
		KeyFetchTimeout: time.Second,
		StoreTimeout:    time.Second,
		SessionTTL:      time.Hour,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.OIDCClientID = "" },
			wantErr: "OIDC_CLIENT_ID",
		},
		{
			name:    "no principal source",
			mutate:  func(c *Config) { c.PrincipalsFile = "" },
			wantErr: "DATABASE_DSN",
		},
		{
			name:    "zero store timeout",
			mutate:  func(c *Config) { c.StoreTimeout = 0 },
			wantErr: "STORE_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
