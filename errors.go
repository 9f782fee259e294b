package steward

import "errors"

var (
	// ErrAccessDenied is returned by the Enforce helpers when a decision
	// comes back deny.
	ErrAccessDenied = errors.New("steward: access denied")

	// ErrInvalidRequirement is returned when a requirement names an unknown
	// scope or role. This is a programming error in the caller, never a
	// function of request data.
	ErrInvalidRequirement = errors.New("steward: invalid requirement")

	// ErrInvalidRole is returned by mutation commands when the supplied
	// role is not a member of the scope's role set.
	ErrInvalidRole = errors.New("steward: invalid role for scope")

	// ErrInvalidScope is returned by mutation commands for an unknown scope.
	ErrInvalidScope = errors.New("steward: invalid scope")

	// ErrMissingSubject is returned by mutation commands when no subject
	// identifier is supplied.
	ErrMissingSubject = errors.New("steward: missing subject")
)
