// Package postgres implements the role and activity storage driver for PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"

	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/store/internal/dbtype"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/go-playground/errors/v5"
	"github.com/gofrs/uuid"
)

// StorageDriver represents the role and activity storage implementation for PostgreSQL.
type StorageDriver struct {
	conn Queryer
}

// NewStorageDriver creates a new StorageDriver
func NewStorageDriver(conn Queryer) *StorageDriver {
	return &StorageDriver{
		conn: conn,
	}
}

// HasRole evaluates the has_role database function.
func (d *StorageDriver) HasRole(ctx context.Context, userID ccc.UUID, role string) (bool, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	var ok bool
	if err := d.conn.QueryRow(ctx, `SELECT has_role($1, $2)`, userID, role).Scan(&ok); err != nil {
		return false, errors.Wrapf(err, "failed to evaluate has_role for user %s", userID)
	}

	return ok, nil
}

// UserRoles returns the roles assigned to userID
func (d *StorageDriver) UserRoles(ctx context.Context, userID ccc.UUID) ([]string, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	query := `
		SELECT "Role"
		FROM "UserRoles"
		WHERE "UserId" = $1
		ORDER BY "Role"`

	var list []string
	if err := pgxscan.Select(ctx, d.conn, &list, query, userID); err != nil {
		return nil, errors.Wrapf(err, "failed to scan roles for user %s", userID)
	}

	return list, nil
}

// InsertUserRoles assigns roles to userID. Existing assignments are left untouched.
func (d *StorageDriver) InsertUserRoles(ctx context.Context, userID ccc.UUID, roles []string) error {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	query := `
		INSERT INTO "UserRoles"
			("UserId", "Role")
		SELECT $1, r FROM unnest($2::text[]) AS r
		ON CONFLICT ("UserId", "Role") DO NOTHING`

	if _, err := d.conn.Exec(ctx, query, userID, roles); err != nil {
		return errors.Wrapf(err, "failed to insert into table UserRoles for user %s", userID)
	}

	return nil
}

// DeleteUserRoles removes roles from userID
func (d *StorageDriver) DeleteUserRoles(ctx context.Context, userID ccc.UUID, roles []string) error {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	query := `
		DELETE FROM "UserRoles"
		WHERE "UserId" = $1 AND "Role" = ANY($2)`

	if _, err := d.conn.Exec(ctx, query, userID, roles); err != nil {
		return errors.Wrapf(err, "failed to delete from table UserRoles for user %s", userID)
	}

	return nil
}

// InsertActivity inserts an activity record and returns its id.
func (d *StorageDriver) InsertActivity(ctx context.Context, activity *dbtype.InsertActivity) (string, error) {
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
	b, err := json.Marshal(details)
	if err != nil {
		return "", errors.Wrap(err, "json.Marshal()")
	}

	query := `
		INSERT INTO "ActivityLogs"
			("Id", "UserId", "Action", "Details", "CreatedAt")
		VALUES
			($1, $2, $3, $4, $5)`

	if _, err := d.conn.Exec(ctx, query, id.String(), activity.UserID, activity.Action, string(b), activity.CreatedAt); err != nil {
		return "", errors.Wrap(err, "failed to insert into table ActivityLogs")
	}

	return id.String(), nil
}
