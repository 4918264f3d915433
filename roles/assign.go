package roles

import (
	"context"
	"slices"

	"github.com/cccteam/ccc"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
	"go.opentelemetry.io/otel"
)

// Assigner keeps a user's role assignments in line with a requested set.
type Assigner struct {
	store Store
}

// NewAssigner creates a new Assigner.
func NewAssigner(store Store) *Assigner {
	return &Assigner{
		store: store,
	}
}

// AssignRoles ensures that the user is assigned to the specified roles ONLY.
// Roles outside the closed set are ignored.
// returns true if the user has at least one assigned role (after the operation is complete)
func (a *Assigner) AssignRoles(ctx context.Context, userID ccc.UUID, roles []Role) (hasRole bool, err error) {
	ctx, span := otel.Tracer(name).Start(ctx, "Assigner.AssignRoles()")
	defer span.End()

	existingRoles, err := a.store.UserRoles(ctx, userID)
	if err != nil {
		return false, errors.Wrap(err, "Store.UserRoles()")
	}

	var rolesToAssign []Role
	for _, r := range roles {
		if r.Valid() && !slices.Contains(rolesToAssign, r) {
			rolesToAssign = append(rolesToAssign, r)
		}
	}

	if newRoles := exclude(rolesToAssign, existingRoles); len(newRoles) > 0 {
		if err := a.store.AddUserRoles(ctx, userID, newRoles...); err != nil {
			return false, errors.Wrap(err, "Store.AddUserRoles()")
		}
		logger.Ctx(ctx).Infof("User %s assigned to roles %v", userID, newRoles)
	}

	if removeRoles := exclude(existingRoles, rolesToAssign); len(removeRoles) > 0 {
		if err := a.store.DeleteUserRoles(ctx, userID, removeRoles...); err != nil {
			return false, errors.Wrap(err, "Store.DeleteUserRoles()")
		}
		logger.Ctx(ctx).Infof("User %s removed from roles %v", userID, removeRoles)
	}

	return len(rolesToAssign) > 0, nil
}

// exclude returns all elements that exist in source but not exclude
func exclude[T comparable](source, exclude []T) []T {
	list := make([]T, 0, len(source))
	for _, item := range source {
		if slices.Contains(exclude, item) {
			continue
		}
		list = append(list, item)
	}

	return list
}
