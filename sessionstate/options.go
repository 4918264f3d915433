package sessionstate

import "github.com/cccteam/eduauth/internal/eventloop"

// Option configures a Holder.
type Option func(*Holder)

// WithProfileRoute sets the profile-completion route users without a role are sent to. (default: /complete-profile)
func WithProfileRoute(route string) Option {
	return func(h *Holder) {
		h.profileRoute = route
	}
}

// WithExemptRoutes sets the route prefixes on which the onboarding redirect never fires. (default: /auth)
func WithExemptRoutes(routes ...string) Option {
	return func(h *Holder) {
		h.exemptRoutes = routes
	}
}

// WithEventLoop runs deferred work on l instead of a loop owned by the Holder.
// The caller remains responsible for closing l.
func WithEventLoop(l *eventloop.Loop) Option {
	return func(h *Holder) {
		h.loop = l
	}
}

// WithObserver registers fn to receive every committed State. fn runs on the
// event loop after the state update, never inside the provider callback.
func WithObserver(fn func(State)) Option {
	return func(h *Holder) {
		h.observers = append(h.observers, fn)
	}
}
