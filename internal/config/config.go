package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	OIDCProvider     string `env:"OIDC_PROVIDER" envDefault:"google"`
	OIDCIssuer       string `env:"OIDC_ISSUER" envDefault:"https://accounts.google.com"`
	OIDCClientID     string `env:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `env:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string `env:"OIDC_REDIRECT_URL"`

	// JWKSURL overrides the jwks_uri advertised by the issuer.
	JWKSURL               string        `env:"OIDC_JWKS_URL"`
	TokenAudience         string        `env:"TOKEN_AUDIENCE"`
	KeyFetchTimeout       time.Duration `env:"KEY_FETCH_TIMEOUT" envDefault:"5s"`
	KeyCacheTTL           time.Duration `env:"KEY_CACHE_TTL" envDefault:"1h"`
	KeyRefreshMinInterval time.Duration `env:"KEY_REFRESH_MIN_INTERVAL" envDefault:"30s"`

	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"2s"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"true"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	DatabaseDSN    string `env:"DATABASE_DSN"`
	PrincipalsFile string `env:"PRINCIPALS_FILE"`

	RoutePolicyFile string `env:"ROUTE_POLICY_FILE"`
}

// Load reads a local .env file when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.AppPort == "" {
		errs = append(errs, errors.New("APP_PORT cannot be empty"))
	}
	if c.OIDCIssuer == "" {
		errs = append(errs, errors.New("OIDC_ISSUER cannot be empty"))
	}
	if c.OIDCClientID == "" {
		errs = append(errs, errors.New("OIDC_CLIENT_ID cannot be empty"))
	}
	if c.DatabaseDSN == "" && c.PrincipalsFile == "" {
		errs = append(errs, errors.New("one of DATABASE_DSN or PRINCIPALS_FILE is required"))
	}
	if c.KeyFetchTimeout <= 0 {
		errs = append(errs, errors.New("KEY_FETCH_TIMEOUT must be positive"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
