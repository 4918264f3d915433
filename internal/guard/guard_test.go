package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/fault"
	"github.com/cccteam/eduauth/identity"
	"github.com/cccteam/eduauth/mock/mock_identity"
	"github.com/cccteam/eduauth/mock/mock_roles"
	"github.com/cccteam/eduauth/roles"
	"github.com/cccteam/eduauth/sessioninfo"
	"github.com/go-playground/errors/v5"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/mock/gomock"
)

var headTeacher = &identity.User{
	ID:    ccc.Must(ccc.UUIDFromString("7a1c3e5f-0b2d-4f6a-8c9e-1d3f5a7b9c0e")),
	Email: "head@school.test",
}

func request(authorization string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/functions/v1/delete-user", http.NoBody)
	if authorization != "" {
		r.Header.Set("Authorization", authorization)
	}

	return r
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		authorization string
		want          string
		wantErr       bool
	}{
		{name: "bearer", authorization: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "scheme is case insensitive", authorization: "bearer abc", want: "abc"},
		{name: "missing", wantErr: true},
		{name: "other scheme", authorization: "Basic dXNlcjpwYXNz", wantErr: true},
		{name: "scheme only", authorization: "Bearer", wantErr: true},
		{name: "blank token", authorization: "Bearer    ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := BearerToken(request(tt.authorization))
			if tt.wantErr {
				if !fault.Is(err, fault.Unauthorized) || fault.Message(err) != MsgMissingAuthorization {
					t.Errorf("BearerToken() error = %v, want Unauthorized %q", err, MsgMissingAuthorization)
				}

				return
			}
			if err != nil {
				t.Fatalf("BearerToken() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("BearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGuard_Authenticate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		authorization string
		prepare       func(v *mock_identity.MockVerifier)
		want          *sessioninfo.UserInfo
		wantMsg       string
	}{
		{
			name:    "no credential never reaches the verifier",
			wantMsg: MsgMissingAuthorization,
		},
		{
			name:          "verifier rejects",
			authorization: "Bearer expired",
			prepare: func(v *mock_identity.MockVerifier) {
				v.EXPECT().UserFromToken(gomock.Any(), "expired").Return(nil, errors.Wrap(identity.ErrInvalidToken, "token is expired"))
			},
			wantMsg: MsgInvalidToken,
		},
		{
			name:          "verifier unreachable",
			authorization: "Bearer good",
			prepare: func(v *mock_identity.MockVerifier) {
				v.EXPECT().UserFromToken(gomock.Any(), "good").Return(nil, errors.New("dial tcp: connection refused"))
			},
			wantMsg: MsgInvalidToken,
		},
		{
			name:          "verifier returns nobody",
			authorization: "Bearer good",
			prepare: func(v *mock_identity.MockVerifier) {
				v.EXPECT().UserFromToken(gomock.Any(), "good").Return(nil, nil)
			},
			wantMsg: MsgInvalidToken,
		},
		{
			name:          "resolved",
			authorization: "Bearer good",
			prepare: func(v *mock_identity.MockVerifier) {
				v.EXPECT().UserFromToken(gomock.Any(), "good").Return(headTeacher, nil)
			},
			want: &sessioninfo.UserInfo{ID: headTeacher.ID, Email: headTeacher.Email},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			verifier := mock_identity.NewMockVerifier(ctrl)
			if tt.prepare != nil {
				tt.prepare(verifier)
			}
			g := New(verifier, mock_roles.NewMockChecker(ctrl))

			ctx, err := g.Authenticate(request(tt.authorization))
			if tt.wantMsg != "" {
				if !fault.Is(err, fault.Unauthorized) || fault.Message(err) != tt.wantMsg {
					t.Errorf("Guard.Authenticate() error = %v, want Unauthorized %q", err, tt.wantMsg)
				}

				return
			}
			if err != nil {
				t.Fatalf("Guard.Authenticate() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, sessioninfo.UserFromCtx(ctx)); diff != "" {
				t.Errorf("sessioninfo.UserFromCtx() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGuard_RequireRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		role    roles.Role
		prepare func(c *mock_roles.MockChecker)
		wantMsg string
	}{
		{
			name: "admin",
			role: roles.Admin,
			prepare: func(c *mock_roles.MockChecker) {
				c.EXPECT().HasRole(gomock.Any(), headTeacher.ID, roles.Admin).Return(true, nil)
			},
		},
		{
			name: "not admin",
			role: roles.Admin,
			prepare: func(c *mock_roles.MockChecker) {
				c.EXPECT().HasRole(gomock.Any(), headTeacher.ID, roles.Admin).Return(false, nil)
			},
			wantMsg: MsgAdminRequired,
		},
		{
			name: "check fails closed",
			role: roles.Admin,
			prepare: func(c *mock_roles.MockChecker) {
				c.EXPECT().HasRole(gomock.Any(), headTeacher.ID, roles.Admin).Return(true, errors.New("rpc timeout"))
			},
			wantMsg: MsgAdminRequired,
		},
		{
			name: "other role",
			role: roles.Pedago,
			prepare: func(c *mock_roles.MockChecker) {
				c.EXPECT().HasRole(gomock.Any(), headTeacher.ID, roles.Pedago).Return(false, nil)
			},
			wantMsg: "pedago role required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			checker := mock_roles.NewMockChecker(ctrl)
			tt.prepare(checker)
			g := New(mock_identity.NewMockVerifier(ctrl), checker)

			err := g.RequireRole(context.Background(), headTeacher.ID, tt.role)
			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("Guard.RequireRole() error = %v", err)
				}

				return
			}
			if !fault.Is(err, fault.Forbidden) || fault.Message(err) != tt.wantMsg {
				t.Errorf("Guard.RequireRole() error = %v, want Forbidden %q", err, tt.wantMsg)
			}
		})
	}
}
