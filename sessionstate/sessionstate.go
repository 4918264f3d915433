// Package sessionstate owns the application's view of who is signed in.
//
// A Holder is created at startup, bootstrapped once from the identity
// provider, replaced wholesale on every provider event and torn down with
// Close. Work triggered by a provider event (the onboarding redirect and
// observer notifications) is posted to an event loop so it never runs inside
// the provider's own callback.
package sessionstate

import (
	"context"
	"strings"
	"sync"

	"github.com/cccteam/eduauth/identity"
	"github.com/cccteam/eduauth/internal/eventloop"
	"github.com/cccteam/eduauth/roles"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
)

const (
	defaultProfileRoute = "/complete-profile"
	defaultAuthRoute    = "/auth"
)

// ErrAlreadyListening is returned when Listen is called more than once.
var ErrAlreadyListening = errors.New("session listener already installed")

// ErrClosed is returned when Listen is called on a closed Holder.
var ErrClosed = errors.New("session holder closed")

// State is the current authentication state.
type State struct {
	User    *identity.User
	Loading bool
}

// IsAuthenticated reports whether a user is signed in.
func (s State) IsAuthenticated() bool {
	return s.User != nil
}

// Holder owns the current State.
type Holder struct {
	client       identity.Client
	lister       roles.Lister
	nav          Navigator
	loop         *eventloop.Loop
	ownsLoop     bool
	profileRoute string
	exemptRoutes []string
	observers    []func(State)

	mu        sync.RWMutex
	state     State
	sub       identity.Subscription
	listening bool
	closed    bool
}

// New creates a Holder in the loading state.
func New(client identity.Client, lister roles.Lister, nav Navigator, opts ...Option) *Holder {
	h := &Holder{
		client:       client,
		lister:       lister,
		nav:          nav,
		profileRoute: defaultProfileRoute,
		exemptRoutes: []string{defaultAuthRoute},
		state:        State{Loading: true},
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.loop == nil {
		h.loop = eventloop.New()
		h.ownsLoop = true
	}

	return h
}

// Current returns a snapshot of the current State.
func (h *Holder) Current() State {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.state
}

// Bootstrap fetches the current session from the identity provider. A provider
// error is logged and treated as no session.
func (h *Holder) Bootstrap(ctx context.Context) State {
	var user *identity.User
	sess, err := h.client.CurrentSession(ctx)
	if err != nil {
		logger.Ctx(ctx).Error(errors.Wrap(err, "identity.Client.CurrentSession()"))
	} else if sess != nil {
		user = sess.User
	}

	return h.replace(State{User: user})
}

// Listen installs the provider change handler. It may be called once per Holder.
func (h *Holder) Listen(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()

		return ErrClosed
	}
	if h.listening {
		h.mu.Unlock()

		return ErrAlreadyListening
	}
	h.listening = true
	h.mu.Unlock()

	// The provider may deliver the initial event during registration, so the
	// lock is not held here.
	sub := h.client.OnAuthStateChange(func(event identity.Event, sess *identity.Session) {
		var user *identity.User
		if sess != nil {
			user = sess.User
		}
		h.replace(State{User: user})

		if user != nil {
			h.loop.Post(func() { h.checkOnboarding(ctx, event, user) })
		}
	})

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.Unsubscribe()

		return ErrClosed
	}
	h.sub = sub
	h.mu.Unlock()

	return nil
}

// Close releases the provider subscription. Deferred work that has not yet run
// is dropped. Close is idempotent.
func (h *Holder) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()

		return
	}
	h.closed = true
	sub := h.sub
	h.sub = nil
	h.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}

	if h.ownsLoop {
		h.loop.Close()
	}
}

// Sync waits until the work deferred by events received so far has run.
func (h *Holder) Sync() {
	h.loop.Sync()
}

func (h *Holder) replace(s State) State {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()

	for _, fn := range h.observers {
		h.loop.Post(func() {
			if !h.isClosed() {
				fn(s)
			}
		})
	}

	return s
}

func (h *Holder) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.closed
}

func (h *Holder) checkOnboarding(ctx context.Context, event identity.Event, user *identity.User) {
	if h.isClosed() {
		return
	}

	if h.exempt(h.nav.Location()) {
		return
	}

	assigned, err := h.lister.UserRoles(ctx, user.ID)
	if err != nil {
		logger.Ctx(ctx).Errorf("role lookup for user %s after %s: %s", user.ID, event, errors.Wrap(err, "roles.Lister.UserRoles()"))
	}
	if len(assigned) > 0 {
		return
	}

	logger.Ctx(ctx).Infof("user %s has no role, redirecting to %s", user.ID, h.profileRoute)
	h.nav.HardRedirect(h.profileRoute)
}

func (h *Holder) exempt(location string) bool {
	if strings.HasPrefix(location, h.profileRoute) {
		return true
	}
	for _, r := range h.exemptRoutes {
		if strings.HasPrefix(location, r) {
			return true
		}
	}

	return false
}
