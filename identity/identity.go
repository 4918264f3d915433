// Package identity defines the contract with the hosted identity provider.
//
// The provider itself is not reimplemented here. Client is what an end-user
// application needs to know who is signed in, Verifier resolves a bearer
// credential on the server side and Admin performs account changes with the
// service-level credential.
package identity

import (
	"time"

	"github.com/cccteam/ccc"
	"github.com/go-playground/errors/v5"
)

var (
	// ErrInvalidToken is returned when a bearer credential is malformed, expired or revoked.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUserNotFound is returned by Admin operations targeting an unknown account.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when an email address is already registered.
	ErrEmailExists = errors.New("a user with this email already exists")
)

// User is an authenticated identity.
type User struct {
	ID    ccc.UUID `json:"id"`
	Email string   `json:"email"`
}

// Session is the provider's view of a signed-in user.
type Session struct {
	User         *User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Event is an authentication-state transition emitted by the provider.
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventUserUpdated    Event = "USER_UPDATED"
)

// ChangeHandler receives provider events. session is nil after sign-out.
type ChangeHandler func(event Event, session *Session)

// NewUser contains the information needed to create an account.
type NewUser struct {
	Email    string
	Password string
	Metadata map[string]any
}
