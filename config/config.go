// Package config loads the service and client configuration from the
// environment and optional dotenv files.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/errors/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Token verifier kinds.
const (
	VerifierRemote = "remote"
	VerifierJWT    = "jwt"
	VerifierOIDC   = "oidc"
)

// Role store kinds.
const (
	StoreHosted   = "hosted"
	StorePostgres = "postgres"
	StoreSpanner  = "spanner"
)

// Config holds the configuration of the eduauth commands.
type Config struct {
	// Addr is the listen address of the admin handlers.
	Addr string `mapstructure:"ADDR"`

	IdentityURL        string        `mapstructure:"IDENTITY_URL"`
	IdentityAnonKey    string        `mapstructure:"IDENTITY_ANON_KEY"`
	IdentityServiceKey string        `mapstructure:"IDENTITY_SERVICE_KEY"`
	IdentityTimeout    time.Duration `mapstructure:"IDENTITY_TIMEOUT"`

	// TokenVerifier selects how bearer credentials are resolved: remote, jwt or oidc.
	TokenVerifier string `mapstructure:"TOKEN_VERIFIER"`
	JWTSecret     string `mapstructure:"IDENTITY_JWT_SECRET"`
	JWTAudience   string `mapstructure:"IDENTITY_JWT_AUDIENCE"`
	JWTIssuer     string `mapstructure:"IDENTITY_JWT_ISSUER"`
	OIDCIssuerURL string `mapstructure:"OIDC_ISSUER_URL"`
	OIDCClientID  string `mapstructure:"OIDC_CLIENT_ID"`

	// RoleStore selects where roles and activity are kept: hosted, postgres or spanner.
	RoleStore       string `mapstructure:"ROLE_STORE"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	SpannerDatabase string `mapstructure:"SPANNER_DATABASE"`

	CORSAllowedOrigin string `mapstructure:"CORS_ALLOWED_ORIGIN"`

	TokenStorePath string   `mapstructure:"TOKEN_STORE_PATH"`
	TokenStoreKey  string   `mapstructure:"TOKEN_STORE_KEY"`
	ProfileRoute   string   `mapstructure:"PROFILE_ROUTE"`
	AuthRoutes     []string `mapstructure:"AUTH_ROUTES"`
}

// Load reads the dotenv files that exist, then builds Config from the
// environment. Variables already set in the environment win over dotenv
// values. Without files, .env in the working directory is tried.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, errors.Wrapf(err, "os.Stat(%s)", f)
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "godotenv.Load(%s)", f)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ADDR", ":8080")
	v.SetDefault("IDENTITY_URL", "")
	v.SetDefault("IDENTITY_ANON_KEY", "")
	v.SetDefault("IDENTITY_SERVICE_KEY", "")
	v.SetDefault("IDENTITY_TIMEOUT", "10s")
	v.SetDefault("TOKEN_VERIFIER", VerifierRemote)
	v.SetDefault("IDENTITY_JWT_SECRET", "")
	v.SetDefault("IDENTITY_JWT_AUDIENCE", "authenticated")
	v.SetDefault("IDENTITY_JWT_ISSUER", "")
	v.SetDefault("OIDC_ISSUER_URL", "")
	v.SetDefault("OIDC_CLIENT_ID", "")
	v.SetDefault("ROLE_STORE", StoreHosted)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SPANNER_DATABASE", "")
	v.SetDefault("CORS_ALLOWED_ORIGIN", "*")
	v.SetDefault("TOKEN_STORE_PATH", defaultTokenStorePath())
	v.SetDefault("TOKEN_STORE_KEY", "")
	v.SetDefault("PROFILE_ROUTE", "/complete-profile")
	v.SetDefault("AUTH_ROUTES", "/auth")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "viper.Viper.Unmarshal()")
	}
	cfg.AuthRoutes = trimAll(cfg.AuthRoutes)

	if cfg.IdentityURL == "" {
		return nil, errors.New("config: IDENTITY_URL must be set")
	}
	if cfg.IdentityTimeout <= 0 {
		return nil, errors.New("config: IDENTITY_TIMEOUT must be positive")
	}
	if !slices.Contains([]string{VerifierRemote, VerifierJWT, VerifierOIDC}, cfg.TokenVerifier) {
		return nil, errors.Newf("config: TOKEN_VERIFIER %q is not one of remote, jwt, oidc", cfg.TokenVerifier)
	}
	if !slices.Contains([]string{StoreHosted, StorePostgres, StoreSpanner}, cfg.RoleStore) {
		return nil, errors.Newf("config: ROLE_STORE %q is not one of hosted, postgres, spanner", cfg.RoleStore)
	}

	return &cfg, nil
}

// ValidateServer checks the settings needed to serve the admin handlers.
func (c *Config) ValidateServer() error {
	if c.IdentityServiceKey == "" {
		return errors.New("config: IDENTITY_SERVICE_KEY must be set")
	}

	switch c.TokenVerifier {
	case VerifierJWT:
		if c.JWTSecret == "" {
			return errors.New("config: IDENTITY_JWT_SECRET must be set when TOKEN_VERIFIER=jwt")
		}
	case VerifierOIDC:
		if c.OIDCIssuerURL == "" || c.OIDCClientID == "" {
			return errors.New("config: OIDC_ISSUER_URL and OIDC_CLIENT_ID must be set when TOKEN_VERIFIER=oidc")
		}
	}

	switch c.RoleStore {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set when ROLE_STORE=postgres")
		}
	case StoreSpanner:
		if c.SpannerDatabase == "" {
			return errors.New("config: SPANNER_DATABASE must be set when ROLE_STORE=spanner")
		}
	}

	return nil
}

func defaultTokenStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".eduauth", "session")
	}

	return filepath.Join(home, ".eduauth", "session")
}

func trimAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}
