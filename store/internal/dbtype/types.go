// Package dbtype contains types used by the database driver packages for role and activity storage.
package dbtype

import (
	"time"

	"github.com/cccteam/ccc"
)

// UserRole is one role assignment.
type UserRole struct {
	UserID    ccc.UUID  `spanner:"UserId"    db:"UserId"`
	Role      string    `spanner:"Role"      db:"Role"`
	CreatedAt time.Time `spanner:"CreatedAt" db:"CreatedAt"`
}

// InsertActivity defines the structure for inserting an activity record.
type InsertActivity struct {
	UserID    ccc.UUID
	Action    string
	Details   map[string]any
	CreatedAt time.Time
}
