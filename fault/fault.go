// Package fault classifies the errors produced while serving privileged requests.
//
// Client-facing errors are httpio client messages. Only their text ever leaves
// the process. Anything else, or an internal server error message, is reported
// to the caller with a generic message and logged with full detail on the
// server side.
package fault

import (
	"github.com/cccteam/httpio"
)

// Kind is the category of a fault.
type Kind int

const (
	// Upstream covers identity-provider failures and any unclassified error.
	Upstream Kind = iota
	// Unauthorized means the credential was missing or could not be resolved.
	Unauthorized
	// Forbidden means the caller is authenticated but lacks the required role.
	Forbidden
	// BadRequest means malformed input or a policy violation such as self-targeting.
	BadRequest
)

// GenericMessage is sent to the caller for upstream failures.
const GenericMessage = "request could not be completed"

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "Unauthorized"
	case Forbidden:
		return "Forbidden"
	case BadRequest:
		return "BadRequest"
	default:
		return "UpstreamFailure"
	}
}

// KindOf returns the Kind of the outermost client message in err's chain.
func KindOf(err error) Kind {
	switch {
	case httpio.HasUnauthorized(err):
		return Unauthorized
	case httpio.HasForbidden(err):
		return Forbidden
	case httpio.HasBadRequest(err), httpio.HasNotFound(err), httpio.HasConflict(err):
		return BadRequest
	default:
		return Upstream
	}
}

// Is reports whether err is a fault of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the text that may be shown to the caller for err. Nested
// client messages are more specific than the ones wrapping them, so the
// innermost non-empty one wins.
func Message(err error) string {
	if KindOf(err) == Upstream {
		return GenericMessage
	}

	msgs := httpio.Messages(err)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i] != "" {
			return msgs[i]
		}
	}

	return GenericMessage
}
