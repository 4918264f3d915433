package eduauth

import (
	"github.com/cccteam/eduauth/audit"
	"github.com/cccteam/eduauth/roles"
)

// AdminOption defines a function signature for setting Admin options.
type AdminOption func(*Admin)

// WithLogHandler sets the LogHandler. (default: httpio.Log)
func WithLogHandler(l LogHandler) AdminOption {
	return AdminOption(func(a *Admin) {
		a.handle = l
	})
}

// WithAllowedOrigin sets the Access-Control-Allow-Origin value. (default: *)
func WithAllowedOrigin(origin string) AdminOption {
	return AdminOption(func(a *Admin) {
		a.allowedOrigin = origin
	})
}

// WithAuditRecorder enables activity records for successful actions.
func WithAuditRecorder(r audit.Recorder) AdminOption {
	return AdminOption(func(a *Admin) {
		a.audit = audit.NewLogger(r)
	})
}

// WithRoleStore keeps role assignments in step with account changes. New
// accounts are assigned the requested role and deleted accounts lose theirs.
func WithRoleStore(s roles.Store) AdminOption {
	return AdminOption(func(a *Admin) {
		a.roleStore = s
		a.assigner = roles.NewAssigner(s)
	})
}
