// Package roles defines the closed set of platform roles and the contracts
// used to check and assign them.
package roles

import (
	"github.com/go-playground/errors/v5"
)

const name = "github.com/cccteam/eduauth/roles"

// Role is a named permission level held by a user.
type Role string

const (
	// Admin may administer other users.
	Admin Role = "admin"
	// Pedago is pedagogical staff.
	Pedago Role = "pedago"
	// Parent is the parent of one or more students.
	Parent Role = "parent"
	// Student is an enrolled student.
	Student Role = "student"
)

// All lists every role in display order.
var All = []Role{Admin, Pedago, Parent, Student}

var labels = map[Role]string{
	Admin:   "administrator",
	Pedago:  "pedagogical staff",
	Parent:  "parent",
	Student: "student",
}

// ErrUnknownRole is returned by Parse for names outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

// Parse returns the Role whose wire name is exactly s.
func Parse(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", errors.Wrapf(ErrUnknownRole, "%q", s)
	}

	return r, nil
}

// Valid reports whether r belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := labels[r]

	return ok
}

// Label returns the human readable name of r.
func (r Role) Label() string {
	if l, ok := labels[r]; ok {
		return l
	}

	return string(r)
}

func (r Role) String() string {
	return string(r)
}

// Names returns the wire names of rs.
func Names(rs []Role) []string {
	names := make([]string, 0, len(rs))
	for _, r := range rs {
		names = append(names, string(r))
	}

	return names
}
