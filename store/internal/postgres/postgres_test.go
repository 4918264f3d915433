package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/store/internal/dbtype"
	"github.com/google/go-cmp/cmp"
)

const PostgresTimestampFormat = "2006-01-02 15:04:05.999999999-07"

const (
	schemaSource = "file://../../../schema/postgresql/migrations"
	rolesSource  = "file://testdata/roles_test/valid_roles"
	invalidSrc   = "file://testdata/invalid_schema"
)

var (
	headTeacher = ccc.Must(ccc.UUIDFromString("7a1c3e5f-0b2d-4f6a-8c9e-1d3f5a7b9c0e"))
	parentUser  = ccc.Must(ccc.UUIDFromString("2b4d6f8a-1c3e-4a5b-9d7f-0e2c4a6b8d1f"))
	newcomer    = ccc.Must(ccc.UUIDFromString("9f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a"))
)

func TestMigrations(t *testing.T) {
	t.Parallel()

	db := newDatabase(t.Context(), t, schemaSource)

	if err := db.MigrateDown(schemaSource); err != nil {
		t.Fatalf("db.MigrateDown() error = %v", err)
	}
}

func TestStorageDriver_HasRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		userID    ccc.UUID
		role      string
		sourceURL []string
		want      bool
		wantErr   bool
	}{
		{
			name:      "fails without the procedure (invalid schema)",
			userID:    headTeacher,
			role:      "admin",
			sourceURL: []string{invalidSrc},
			wantErr:   true,
		},
		{
			name:      "holds role",
			userID:    headTeacher,
			role:      "admin",
			sourceURL: []string{schemaSource, rolesSource},
			want:      true,
		},
		{
			name:      "does not hold role",
			userID:    parentUser,
			role:      "admin",
			sourceURL: []string{schemaSource, rolesSource},
		},
		{
			name:      "unknown user",
			userID:    newcomer,
			role:      "student",
			sourceURL: []string{schemaSource, rolesSource},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn := newDatabase(t.Context(), t, tt.sourceURL...)
			d := NewStorageDriver(conn.Pool)

			got, err := d.HasRole(t.Context(), tt.userID, tt.role)
			if (err != nil) != tt.wantErr {
				t.Fatalf("StorageDriver.HasRole() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("StorageDriver.HasRole() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStorageDriver_UserRoles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		userID    ccc.UUID
		sourceURL []string
		want      []string
		wantErr   bool
	}{
		{
			name:      "fails to read roles (invalid schema)",
			userID:    headTeacher,
			sourceURL: []string{invalidSrc},
			wantErr:   true,
		},
		{
			name:      "several roles in order",
			userID:    headTeacher,
			sourceURL: []string{schemaSource, rolesSource},
			want:      []string{"admin", "pedago"},
		},
		{
			name:      "no roles",
			userID:    newcomer,
			sourceURL: []string{schemaSource, rolesSource},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn := newDatabase(t.Context(), t, tt.sourceURL...)
			d := NewStorageDriver(conn.Pool)

			got, err := d.UserRoles(t.Context(), tt.userID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("StorageDriver.UserRoles() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("StorageDriver.UserRoles() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStorageDriver_InsertUserRoles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		userID         ccc.UUID
		roles          []string
		sourceURL      []string
		wantErr        bool
		postAssertions []string
	}{
		{
			name:      "fails to insert (invalid schema)",
			userID:    newcomer,
			roles:     []string{"student"},
			sourceURL: []string{invalidSrc},
			wantErr:   true,
		},
		{
			name:      "rejects a role outside the closed set",
			userID:    newcomer,
			roles:     []string{"janitor"},
			sourceURL: []string{schemaSource},
			wantErr:   true,
		},
		{
			name:      "existing assignment is kept",
			userID:    headTeacher,
			roles:     []string{"admin", "parent"},
			sourceURL: []string{schemaSource, rolesSource},
			postAssertions: []string{
				fmt.Sprintf(`SELECT COUNT(*) = 3 FROM "UserRoles" WHERE "UserId" = '%s'`, headTeacher),
				fmt.Sprintf(`SELECT "CreatedAt" = '2024-09-02 08:00:00+00' FROM "UserRoles" WHERE "UserId" = '%s' AND "Role" = 'admin'`, headTeacher),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn := newDatabase(t.Context(), t, tt.sourceURL...)
			d := NewStorageDriver(conn.Pool)

			if err := d.InsertUserRoles(t.Context(), tt.userID, tt.roles); (err != nil) != tt.wantErr {
				t.Fatalf("StorageDriver.InsertUserRoles() error = %v, wantErr %v", err, tt.wantErr)
			}
			runAssertions(t.Context(), t, conn.Pool, tt.postAssertions)
		})
	}
}

func TestStorageDriver_DeleteUserRoles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		userID         ccc.UUID
		roles          []string
		sourceURL      []string
		wantErr        bool
		postAssertions []string
	}{
		{
			name:      "fails to delete (invalid schema)",
			userID:    headTeacher,
			roles:     []string{"admin"},
			sourceURL: []string{invalidSrc},
			wantErr:   true,
		},
		{
			name:      "removes only the named roles",
			userID:    headTeacher,
			roles:     []string{"admin", "student"},
			sourceURL: []string{schemaSource, rolesSource},
			postAssertions: []string{
				fmt.Sprintf(`SELECT COUNT(*) = 1 FROM "UserRoles" WHERE "UserId" = '%s'`, headTeacher),
				fmt.Sprintf(`SELECT NOT has_role('%s', 'admin')`, headTeacher),
				fmt.Sprintf(`SELECT has_role('%s', 'parent')`, parentUser),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn := newDatabase(t.Context(), t, tt.sourceURL...)
			d := NewStorageDriver(conn.Pool)

			if err := d.DeleteUserRoles(t.Context(), tt.userID, tt.roles); (err != nil) != tt.wantErr {
				t.Fatalf("StorageDriver.DeleteUserRoles() error = %v, wantErr %v", err, tt.wantErr)
			}
			runAssertions(t.Context(), t, conn.Pool, tt.postAssertions)
		})
	}
}

func TestStorageDriver_InsertActivity(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2024, 9, 4, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name           string
		activity       *dbtype.InsertActivity
		sourceURL      []string
		wantErr        bool
		postAssertions []string
	}{
		{
			name:      "fails to insert (invalid schema)",
			activity:  &dbtype.InsertActivity{UserID: headTeacher, Action: "admin_create_user", CreatedAt: createdAt},
			sourceURL: []string{invalidSrc},
			wantErr:   true,
		},
		{
			name: "records details",
			activity: &dbtype.InsertActivity{
				UserID:    headTeacher,
				Action:    "admin_create_user",
				Details:   map[string]any{"email": "new@school.test", "role": "pedago"},
				CreatedAt: createdAt,
			},
			sourceURL: []string{schemaSource},
			postAssertions: []string{
				`SELECT "Action" = 'admin_create_user' FROM "ActivityLogs" WHERE "Id" = '%s'`,
				`SELECT "Details"->>'email' = 'new@school.test' FROM "ActivityLogs" WHERE "Id" = '%s'`,
				fmt.Sprintf(`SELECT "UserId" = '%s' FROM "ActivityLogs" WHERE "Id" = '%%s'`, headTeacher),
				fmt.Sprintf(`SELECT "CreatedAt" = '%s' FROM "ActivityLogs" WHERE "Id" = '%%s'`, createdAt.Format(PostgresTimestampFormat)),
			},
		},
		{
			name:      "nil details are stored as an empty object",
			activity:  &dbtype.InsertActivity{UserID: headTeacher, Action: "update_email", CreatedAt: createdAt},
			sourceURL: []string{schemaSource},
			postAssertions: []string{
				`SELECT "Details" = '{}'::jsonb FROM "ActivityLogs" WHERE "Id" = '%s'`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn := newDatabase(t.Context(), t, tt.sourceURL...)
			d := NewStorageDriver(conn.Pool)

			id, err := d.InsertActivity(t.Context(), tt.activity)
			if (err != nil) != tt.wantErr {
				t.Fatalf("StorageDriver.InsertActivity() error = %v, wantErr %v", err, tt.wantErr)
			}

			assertions := make([]string, 0, len(tt.postAssertions))
			for _, a := range tt.postAssertions {
				assertions = append(assertions, fmt.Sprintf(a, id))
			}
			runAssertions(t.Context(), t, conn.Pool, assertions)
		})
	}
}
