package identity

import (
	"context"

	"github.com/cccteam/ccc"
)

// Client is the end-user side of the identity provider.
type Client interface {
	// CurrentSession returns the signed-in session, or nil when nobody is signed in.
	CurrentSession(ctx context.Context) (*Session, error)
	// OnAuthStateChange registers handler for every provider event until the
	// returned Subscription is released.
	OnAuthStateChange(handler ChangeHandler) Subscription
	// SignOut ends the current session.
	SignOut(ctx context.Context) error
}

// Subscription is a registered ChangeHandler.
type Subscription interface {
	Unsubscribe()
}

// Verifier resolves a bearer credential to the identity it was issued for.
type Verifier interface {
	UserFromToken(ctx context.Context, token string) (*User, error)
}

// Admin performs account changes with the service-level credential.
type Admin interface {
	CreateUser(ctx context.Context, user *NewUser) (*User, error)
	DeleteUser(ctx context.Context, id ccc.UUID) error
	UpdateUserEmail(ctx context.Context, id ccc.UUID, email string) error
}
