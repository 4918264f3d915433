package store

import (
	"context"
	"time"

	cloudspanner "cloud.google.com/go/spanner"
	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/roles"
	"github.com/cccteam/eduauth/store/internal/dbtype"
	"github.com/cccteam/eduauth/store/internal/postgres"
	"github.com/cccteam/eduauth/store/internal/spanner"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
)

// Store checks and manages roles and records activity in a database.
type Store struct {
	db db
}

// NewPostgres creates a Store backed by PostgreSQL.
func NewPostgres(conn postgres.Queryer) *Store {
	return &Store{
		db: postgres.NewStorageDriver(conn),
	}
}

// NewSpanner creates a Store backed by Spanner.
func NewSpanner(client *cloudspanner.Client) *Store {
	return &Store{
		db: spanner.NewStorageDriver(client),
	}
}

// HasRole reports whether userID holds role.
func (s *Store) HasRole(ctx context.Context, userID ccc.UUID, role roles.Role) (bool, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	ok, err := s.db.HasRole(ctx, userID, role.String())
	if err != nil {
		return false, errors.Wrap(err, "db.HasRole()")
	}

	return ok, nil
}

// UserRoles returns the roles assigned to userID. Stored names outside the
// closed set are skipped.
func (s *Store) UserRoles(ctx context.Context, userID ccc.UUID) ([]roles.Role, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	names, err := s.db.UserRoles(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "db.UserRoles()")
	}

	list := make([]roles.Role, 0, len(names))
	for _, n := range names {
		r, err := roles.Parse(n)
		if err != nil {
			logger.Ctx(ctx).Errorf("skipping role of user %s: %s", userID, err)

			continue
		}
		list = append(list, r)
	}

	return list, nil
}

// AddUserRoles assigns rs to userID
func (s *Store) AddUserRoles(ctx context.Context, userID ccc.UUID, rs ...roles.Role) error {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	if len(rs) == 0 {
		return nil
	}

	if err := s.db.InsertUserRoles(ctx, userID, roles.Names(rs)); err != nil {
		return errors.Wrap(err, "db.InsertUserRoles()")
	}

	return nil
}

// DeleteUserRoles removes rs from userID
func (s *Store) DeleteUserRoles(ctx context.Context, userID ccc.UUID, rs ...roles.Role) error {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	if len(rs) == 0 {
		return nil
	}

	if err := s.db.DeleteUserRoles(ctx, userID, roles.Names(rs)); err != nil {
		return errors.Wrap(err, "db.DeleteUserRoles()")
	}

	return nil
}

// LogActivity appends an activity record for actorID.
func (s *Store) LogActivity(ctx context.Context, actorID ccc.UUID, action string, details map[string]any) error {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	activity := &dbtype.InsertActivity{
		UserID:    actorID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	}

	if _, err := s.db.InsertActivity(ctx, activity); err != nil {
		return errors.Wrap(err, "db.InsertActivity()")
	}

	return nil
}
