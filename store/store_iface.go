// Package store keeps role assignments and the activity log in a database.
// There are implementations for both Spanner and Postgres.
package store

import (
	"context"

	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/audit"
	"github.com/cccteam/eduauth/roles"
	"github.com/cccteam/eduauth/store/internal/dbtype"
	"github.com/cccteam/eduauth/store/internal/postgres"
	"github.com/cccteam/eduauth/store/internal/spanner"
)

var (
	_ roles.Checker  = (*Store)(nil)
	_ roles.Store    = (*Store)(nil)
	_ audit.Recorder = (*Store)(nil)
)

var (
	_ db = (*spanner.StorageDriver)(nil)
	_ db = (*postgres.StorageDriver)(nil)
)

// db defines the database operations backing a Store.
type db interface {
	// HasRole evaluates the role membership procedure.
	HasRole(ctx context.Context, userID ccc.UUID, role string) (bool, error)
	// UserRoles returns the role names assigned to userID.
	UserRoles(ctx context.Context, userID ccc.UUID) ([]string, error)
	// InsertUserRoles assigns roles, keeping existing assignments.
	InsertUserRoles(ctx context.Context, userID ccc.UUID, roles []string) error
	// DeleteUserRoles removes role assignments.
	DeleteUserRoles(ctx context.Context, userID ccc.UUID, roles []string) error
	// InsertActivity writes an activity record and returns its id.
	InsertActivity(ctx context.Context, activity *dbtype.InsertActivity) (string, error)
}
