// Package workflow implements the task lifecycle of the board.
//
// A task moves pending -> in_progress -> completed -> approved. An admin can
// send an unapproved task back to pending by unassigning it. Every function
// in this package is pure: it receives the acting profile, the current task
// and the time of the action, and returns the next version of the task or
// an *Error describing why the action is not allowed. Persisting the result
// is left to the caller.
//
// The package also owns the error taxonomy shared by the services and the
// HTTP layer: ErrInvalidTransition, ErrValidation, ErrPersistence and
// ErrAuth.
package workflow
