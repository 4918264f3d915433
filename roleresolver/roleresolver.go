// Package roleresolver answers role questions about the signed-in user.
//
// Checks are delegated to a roles.Checker on every call and never cached.
// Errors are logged and reported as false, so privileged UI stays hidden
// when the answer is unknown. The server-side guard remains the enforcement
// boundary.
package roleresolver

import (
	"context"

	"github.com/cccteam/eduauth/roles"
	"github.com/cccteam/eduauth/sessionstate"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
)

// SessionSource provides the current session state.
type SessionSource interface {
	Current() sessionstate.State
}

// Resolver checks the roles of the current user.
type Resolver struct {
	session SessionSource
	checker roles.Checker
}

// New creates a Resolver.
func New(session SessionSource, checker roles.Checker) *Resolver {
	return &Resolver{
		session: session,
		checker: checker,
	}
}

// HasRole reports whether the current user holds role.
func (r *Resolver) HasRole(ctx context.Context, role roles.Role) bool {
	user := r.session.Current().User
	if user == nil {
		return false
	}

	if !role.Valid() {
		logger.Ctx(ctx).Errorf("HasRole(): %s", errors.Wrapf(roles.ErrUnknownRole, "%q", role))

		return false
	}

	ok, err := r.checker.HasRole(ctx, user.ID, role)
	if err != nil {
		logger.Ctx(ctx).Error(errors.Wrap(err, "roles.Checker.HasRole()"))

		return false
	}

	return ok
}

// IsAdmin reports whether the current user is an administrator.
func (r *Resolver) IsAdmin(ctx context.Context) bool {
	return r.HasRole(ctx, roles.Admin)
}
