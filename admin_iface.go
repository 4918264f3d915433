package eduauth

import (
	"net/http"
)

var _ AdminHandlers = &Admin{}

// LogHandler wraps an error returning handler. (default: httpio.Log)
type LogHandler func(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc

// AdminHandlers defines the privileged administrative handlers.
type AdminHandlers interface {
	// CreateUser handles creating a user account with a role.
	CreateUser() http.HandlerFunc
	// DeleteUser handles deleting a user account.
	DeleteUser() http.HandlerFunc
	// UpdateEmail handles changing the email address of a user account.
	UpdateEmail() http.HandlerFunc
}
