// Package guard authenticates and authorizes callers of privileged entry points.
package guard

import (
	"context"
	"net/http"
	"strings"

	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/identity"
	"github.com/cccteam/eduauth/roles"
	"github.com/cccteam/eduauth/sessioninfo"
	"github.com/cccteam/httpio"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
)

// Client facing messages.
const (
	MsgMissingAuthorization = "missing authorization header"
	MsgInvalidToken         = "invalid or expired token"
	MsgAdminRequired        = "admin role required"
)

// Guard runs the authentication and authorization steps shared by every
// privileged handler.
type Guard struct {
	verifier identity.Verifier
	checker  roles.Checker
}

// New creates a Guard.
func New(verifier identity.Verifier, checker roles.Checker) *Guard {
	return &Guard{
		verifier: verifier,
		checker:  checker,
	}
}

// BearerToken extracts the credential from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", httpio.NewUnauthorizedMessage(MsgMissingAuthorization)
	}

	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", httpio.NewUnauthorizedMessage(MsgMissingAuthorization)
	}

	return strings.TrimSpace(token), nil
}

// Authenticate resolves the caller of r and returns a context carrying it.
// Read the caller back with sessioninfo.UserFromCtx.
func (g *Guard) Authenticate(r *http.Request) (context.Context, error) {
	ctx, span := ccc.StartTrace(r.Context())
	defer span.End()

	token, err := BearerToken(r)
	if err != nil {
		return ctx, err
	}

	user, err := g.verifier.UserFromToken(ctx, token)
	if err != nil {
		return ctx, httpio.NewUnauthorizedMessageWithError(errors.Wrap(err, "identity.Verifier.UserFromToken()"), MsgInvalidToken)
	}
	if user == nil {
		return ctx, httpio.NewUnauthorizedMessage(MsgInvalidToken)
	}

	// Add user ID to logging context
	l := logger.Ctx(ctx).WithAttributes().AddAttribute("user ID", user.ID.String()).Logger()
	ctx = logger.NewCtx(ctx, l)

	return sessioninfo.NewUserCtx(ctx, &sessioninfo.UserInfo{ID: user.ID, Email: user.Email}), nil
}

// HasRole reports whether userID holds role. A failed check counts as false.
func (g *Guard) HasRole(ctx context.Context, userID ccc.UUID, role roles.Role) bool {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	ok, err := g.checker.HasRole(ctx, userID, role)
	if err != nil {
		logger.Ctx(ctx).Errorf("role check %s for %s failed: %s", role, userID, errors.Wrap(err, "roles.Checker.HasRole()"))

		return false
	}

	return ok
}

// RequireRole returns a Forbidden client message unless userID holds role.
func (g *Guard) RequireRole(ctx context.Context, userID ccc.UUID, role roles.Role) error {
	if !g.HasRole(ctx, userID, role) {
		if role == roles.Admin {
			return httpio.NewForbiddenMessage(MsgAdminRequired)
		}

		return httpio.NewForbiddenMessagef("%s role required", role)
	}

	return nil
}
