package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cccteam/eduauth/config"
	"github.com/cccteam/eduauth/identity"
	"github.com/cccteam/eduauth/identity/hosted"
)

type fakeHandlers struct {
	called []string
}

func (f *fakeHandlers) handler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.called = append(f.called, r.Method+" "+name)
		w.WriteHeader(http.StatusOK)
	}
}

func (f *fakeHandlers) CreateUser() http.HandlerFunc  { return f.handler("create-user") }
func (f *fakeHandlers) DeleteUser() http.HandlerFunc  { return f.handler("delete-user") }
func (f *fakeHandlers) UpdateEmail() http.HandlerFunc { return f.handler("update-email") }

// recordingExporter stands in for a log exporter and records every request it wraps.
type recordingExporter struct {
	requests []string
}

func (e *recordingExporter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			e.requests = append(e.requests, r.Method+" "+r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

func Test_newRouter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCalled string
	}{
		{name: "create user", method: http.MethodPost, path: "/functions/v1/create-user", wantStatus: http.StatusOK, wantCalled: "POST create-user"},
		{name: "delete user", method: http.MethodPost, path: "/functions/v1/delete-user", wantStatus: http.StatusOK, wantCalled: "POST delete-user"},
		{name: "update email", method: http.MethodPost, path: "/functions/v1/update-email", wantStatus: http.StatusOK, wantCalled: "POST update-email"},
		{name: "preflight", method: http.MethodOptions, path: "/functions/v1/delete-user", wantStatus: http.StatusOK, wantCalled: "OPTIONS delete-user"},
		{name: "wrong method", method: http.MethodGet, path: "/functions/v1/create-user", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown route", method: http.MethodPost, path: "/functions/v1/reset-password", wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := &fakeHandlers{}
			e := &recordingExporter{}
			rr := httptest.NewRecorder()
			newRouter(h, e).ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, http.NoBody))

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if want := tt.method + " " + tt.path; len(e.requests) != 1 || e.requests[0] != want {
				t.Errorf("logged requests = %v, want [%s]", e.requests, want)
			}
			if tt.wantCalled == "" {
				if len(h.called) != 0 {
					t.Errorf("called = %v, want none", h.called)
				}

				return
			}
			if len(h.called) != 1 || h.called[0] != tt.wantCalled {
				t.Errorf("called = %v, want [%s]", h.called, tt.wantCalled)
			}
		})
	}
}

type stubVerifier struct{}

func (stubVerifier) UserFromToken(context.Context, string) (*identity.User, error) {
	return nil, identity.ErrInvalidToken
}

func Test_newVerifier(t *testing.T) {
	t.Parallel()

	remote := stubVerifier{}

	tests := []struct {
		name    string
		cfg     *config.Config
		want    string
		wantErr bool
	}{
		{
			name: "remote",
			cfg:  &config.Config{TokenVerifier: config.VerifierRemote},
			want: "cmd.stubVerifier",
		},
		{
			name: "jwt",
			cfg:  &config.Config{TokenVerifier: config.VerifierJWT, JWTSecret: "super-secret-jwt-token-with-at-least-32-characters", JWTAudience: "authenticated", JWTIssuer: "https://example.test/auth/v1"},
			want: "*jwtverify.Verifier",
		},
		{
			name: "oidc",
			cfg:  &config.Config{TokenVerifier: config.VerifierOIDC, OIDCIssuerURL: "https://issuer.example.test", OIDCClientID: "eduauth"},
			want: "*oidcverify.Verifier",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := newVerifier(tt.cfg, remote)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newVerifier() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := fmt.Sprintf("%T", got); got != tt.want {
				t.Errorf("newVerifier() = %s, want %s", got, tt.want)
			}
		})
	}
}

func Test_newBackend_hosted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	admin, err := hosted.NewAdminClient(ctx, "https://project.example.test", "anon", "service")
	if err != nil {
		t.Fatalf("hosted.NewAdminClient() error = %v", err)
	}

	got, closeFn, err := newBackend(ctx, &config.Config{RoleStore: config.StoreHosted}, admin)
	if err != nil {
		t.Fatalf("newBackend() error = %v", err)
	}
	defer closeFn()

	if got != backend(admin) {
		t.Errorf("newBackend() = %T, want the hosted admin client", got)
	}
}

func Test_consoleNavigator(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	n := newConsoleNavigator(&out, "/dashboard")
	if got := n.Location(); got != "/dashboard" {
		t.Fatalf("Location() = %q, want %q", got, "/dashboard")
	}

	n.HardRedirect("/complete-profile")

	if got := n.Location(); got != "/complete-profile" {
		t.Errorf("Location() = %q, want %q", got, "/complete-profile")
	}
	if got, want := out.String(), "redirect: /complete-profile\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
