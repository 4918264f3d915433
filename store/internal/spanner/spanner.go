// Package spanner provides the role and activity storage driver for Spanner.
package spanner

import (
	"context"

	"cloud.google.com/go/spanner"
	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/store/internal/dbtype"
	"github.com/cccteam/spxscan"
	"github.com/go-playground/errors/v5"
	"github.com/gofrs/uuid"
	"google.golang.org/grpc/codes"
)

const (
	userRolesTable    = "UserRoles"
	activityLogsTable = "ActivityLogs"
)

// StorageDriver represents the role and activity storage implementation for Spanner.
type StorageDriver struct {
	spanner *spanner.Client
}

// NewStorageDriver creates a new StorageDriver
func NewStorageDriver(client *spanner.Client) *StorageDriver {
	return &StorageDriver{
		spanner: client,
	}
}

// HasRole reports whether userID holds role.
func (s *StorageDriver) HasRole(ctx context.Context, userID ccc.UUID, role string) (bool, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	stmt := spanner.NewStatement(`
		SELECT EXISTS (
			SELECT 1 FROM UserRoles
			WHERE UserId = @userId AND Role = @role
		) AS HasRole
	`)
	stmt.Params["userId"] = userID
	stmt.Params["role"] = role

	res := &struct {
		HasRole bool `spanner:"HasRole"`
	}{}
	if err := spxscan.Get(ctx, s.spanner.Single(), res, stmt); err != nil {
		return false, errors.Wrapf(err, "failed to evaluate role %q for user %s", role, userID)
	}

	return res.HasRole, nil
}

// UserRoles returns the roles assigned to userID
func (s *StorageDriver) UserRoles(ctx context.Context, userID ccc.UUID) ([]string, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	stmt := spanner.NewStatement(`
		SELECT
			UserId,
			Role,
			CreatedAt
		FROM UserRoles
		WHERE UserId = @userId
		ORDER BY Role
	`)
	stmt.Params["userId"] = userID

	var rows []*dbtype.UserRole
	if err := spxscan.Select(ctx, s.spanner.Single(), &rows, stmt); err != nil {
		if errors.Is(err, spxscan.ErrNotFound) {
			return []string{}, nil
		}

		return nil, errors.Wrap(err, "spxscan.Select()")
	}

	list := make([]string, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.Role)
	}

	return list, nil
}

// InsertUserRoles assigns roles to userID. Existing assignments are left untouched.
func (s *StorageDriver) InsertUserRoles(ctx context.Context, userID ccc.UUID, roles []string) error {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	mutations := make([]*spanner.Mutation, 0, len(roles))
	for _, r := range roles {
		m, err := spanner.InsertOrUpdateStruct(userRolesTable, &dbtype.UserRole{
			UserID:    userID,
			Role:      r,
			CreatedAt: spanner.CommitTimestamp,
		})
		if err != nil {
			return errors.Wrap(err, "spanner.InsertOrUpdateStruct()")
		}
		mutations = append(mutations, m)
	}

	if _, err := s.spanner.Apply(ctx, mutations); err != nil {
		return errors.Wrap(err, "spanner.Client.Apply()")
	}

	return nil
}

// DeleteUserRoles removes roles from userID
func (s *StorageDriver) DeleteUserRoles(ctx context.Context, userID ccc.UUID, roles []string) error {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	mutations := make([]*spanner.Mutation, 0, len(roles))
	for _, r := range roles {
		mutations = append(mutations, spanner.Delete(userRolesTable, spanner.Key{userID.String(), r}))
	}

	if _, err := s.spanner.Apply(ctx, mutations); err != nil {
		if spanner.ErrCode(err) != codes.NotFound {
			return errors.Wrap(err, "spanner.Client.Apply()")
		}
	}

	return nil
}

// InsertActivity inserts an activity record and returns its id.
func (s *StorageDriver) InsertActivity(ctx context.Context, activity *dbtype.InsertActivity) (string, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	id, err := uuid.NewV4()
	if err != nil {
		return "", errors.Wrap(err, "uuid.NewV4()")
	}

	details := activity.Details
	if details == nil {
		details = map[string]any{}
	}

	row := &struct {
		ID        string           `spanner:"Id"`
		UserID    ccc.UUID         `spanner:"UserId"`
		Action    string           `spanner:"Action"`
		Details   spanner.NullJSON `spanner:"Details"`
		CreatedAt any              `spanner:"CreatedAt"`
	}{
		ID:        id.String(),
		UserID:    activity.UserID,
		Action:    activity.Action,
		Details:   spanner.NullJSON{Value: details, Valid: true},
		CreatedAt: activity.CreatedAt,
	}

	mutation, err := spanner.InsertStruct(activityLogsTable, row)
	if err != nil {
		return "", errors.Wrap(err, "spanner.InsertStruct()")
	}
	if _, err := s.spanner.Apply(ctx, []*spanner.Mutation{mutation}); err != nil {
		return "", errors.Wrap(err, "spanner.Client.Apply()")
	}

	return id.String(), nil
}
