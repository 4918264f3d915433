package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// setenv sets every known key so the host environment cannot leak into a test.
func setenv(t *testing.T, values map[string]string) {
	t.Helper()

	for _, k := range []string{
		"ADDR", "IDENTITY_URL", "IDENTITY_ANON_KEY", "IDENTITY_SERVICE_KEY", "IDENTITY_TIMEOUT",
		"TOKEN_VERIFIER", "IDENTITY_JWT_SECRET", "IDENTITY_JWT_AUDIENCE", "IDENTITY_JWT_ISSUER",
		"OIDC_ISSUER_URL", "OIDC_CLIENT_ID", "ROLE_STORE", "DATABASE_URL", "SPANNER_DATABASE",
		"CORS_ALLOWED_ORIGIN", "TOKEN_STORE_PATH", "TOKEN_STORE_KEY", "PROFILE_ROUTE", "AUTH_ROUTES",
	} {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("os.Unsetenv() error = %v", err)
		}
	}
	for k, v := range values {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setenv(t, map[string]string{
		"IDENTITY_URL":     "https://project.example",
		"TOKEN_STORE_PATH": "/tmp/eduauth/session",
	})

	got, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := &Config{
		Addr:              ":8080",
		IdentityURL:       "https://project.example",
		IdentityTimeout:   10 * time.Second,
		TokenVerifier:     VerifierRemote,
		JWTAudience:       "authenticated",
		RoleStore:         StoreHosted,
		CORSAllowedOrigin: "*",
		TokenStorePath:    "/tmp/eduauth/session",
		ProfileRoute:      "/complete-profile",
		AuthRoutes:        []string{"/auth"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	setenv(t, map[string]string{
		"IDENTITY_URL":     "https://project.example",
		"IDENTITY_TIMEOUT": "3s",
		"TOKEN_VERIFIER":   "jwt",
		"ROLE_STORE":       "postgres",
		"AUTH_ROUTES":      "/auth, /login,,/signup",
	})

	got, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.IdentityTimeout != 3*time.Second {
		t.Errorf("IdentityTimeout = %v, want 3s", got.IdentityTimeout)
	}
	if got.TokenVerifier != VerifierJWT || got.RoleStore != StorePostgres {
		t.Errorf("TokenVerifier, RoleStore = %q, %q", got.TokenVerifier, got.RoleStore)
	}
	if diff := cmp.Diff([]string{"/auth", "/login", "/signup"}, got.AuthRoutes); diff != "" {
		t.Errorf("AuthRoutes mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	setenv(t, map[string]string{
		"IDENTITY_URL": "https://from-environment.example",
	})

	file := filepath.Join(t.TempDir(), ".env.test")
	content := "IDENTITY_URL=https://from-file.example\nCORS_ALLOWED_ORIGIN=https://school.test\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	got, err := Load(file)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.IdentityURL != "https://from-environment.example" {
		t.Errorf("IdentityURL = %q, want the environment value", got.IdentityURL)
	}
	if got.CORSAllowedOrigin != "https://school.test" {
		t.Errorf("CORSAllowedOrigin = %q, want the file value", got.CORSAllowedOrigin)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "no identity url", env: map[string]string{}},
		{name: "unknown verifier", env: map[string]string{"IDENTITY_URL": "https://p.example", "TOKEN_VERIFIER": "magic"}},
		{name: "unknown store", env: map[string]string{"IDENTITY_URL": "https://p.example", "ROLE_STORE": "redis"}},
		{name: "bad timeout", env: map[string]string{"IDENTITY_URL": "https://p.example", "IDENTITY_TIMEOUT": "soon"}},
		{name: "zero timeout", env: map[string]string{"IDENTITY_URL": "https://p.example", "IDENTITY_TIMEOUT": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setenv(t, tt.env)

			if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Error("Load() error = nil")
			}
		})
	}
}

func TestConfig_ValidateServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "remote verifier with hosted store",
			cfg:  Config{IdentityServiceKey: "service", TokenVerifier: VerifierRemote, RoleStore: StoreHosted},
		},
		{
			name:    "no service key",
			cfg:     Config{TokenVerifier: VerifierRemote, RoleStore: StoreHosted},
			wantErr: true,
		},
		{
			name:    "jwt without secret",
			cfg:     Config{IdentityServiceKey: "service", TokenVerifier: VerifierJWT, RoleStore: StoreHosted},
			wantErr: true,
		},
		{
			name:    "oidc without client",
			cfg:     Config{IdentityServiceKey: "service", TokenVerifier: VerifierOIDC, OIDCIssuerURL: "https://issuer.example", RoleStore: StoreHosted},
			wantErr: true,
		},
		{
			name:    "postgres without dsn",
			cfg:     Config{IdentityServiceKey: "service", TokenVerifier: VerifierRemote, RoleStore: StorePostgres},
			wantErr: true,
		},
		{
			name: "spanner",
			cfg:  Config{IdentityServiceKey: "service", TokenVerifier: VerifierRemote, RoleStore: StoreSpanner, SpannerDatabase: "projects/p/instances/i/databases/d"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.cfg.ValidateServer(); (err != nil) != tt.wantErr {
				t.Errorf("Config.ValidateServer() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
