package roles

import (
	"context"

	"github.com/cccteam/ccc"
)

// Checker answers whether a user holds a role. Implementations delegate to a
// trusted server-side procedure so the rule lives in one place.
type Checker interface {
	HasRole(ctx context.Context, userID ccc.UUID, role Role) (bool, error)
}

// Lister returns the role assignments of a user.
type Lister interface {
	UserRoles(ctx context.Context, userID ccc.UUID) ([]Role, error)
}

// Store manages role assignments.
type Store interface {
	Lister
	AddUserRoles(ctx context.Context, userID ccc.UUID, roles ...Role) error
	DeleteUserRoles(ctx context.Context, userID ccc.UUID, roles ...Role) error
}
