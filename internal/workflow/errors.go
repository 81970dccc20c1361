package workflow

import (
	"errors"
	"fmt"

	"github.com/adanyl0v/go-task-board/internal/models"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")
	ErrPersistence       = errors.New("persistence failure")
	ErrAuth              = errors.New("authentication failure")
)

// Error describes a rejected or failed action. Kind is one of the sentinel
// errors above, so callers classify it with errors.Is.
type Error struct {
	Kind   error
	Op     string
	Status models.Status
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Kind.Error()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Status != "" {
		msg += " from " + string(e.Status)
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalidf(op string, status models.Status, format string, args ...any) error {
	return &Error{
		Kind:   ErrInvalidTransition,
		Op:     op,
		Status: status,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func validationf(op string, format string, args ...any) error {
	return &Error{
		Kind: ErrValidation,
		Op:   op,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// InvalidTransition reports a guard violation detected outside the engine,
// e.g. a store write whose precondition no longer held.
func InvalidTransition(op string, status models.Status, msg string) error {
	return &Error{Kind: ErrInvalidTransition, Op: op, Status: status, Msg: msg}
}

func Persistence(op string, err error) error {
	return &Error{Kind: ErrPersistence, Op: op, Err: err}
}

func Auth(op string, err error) error {
	return &Error{Kind: ErrAuth, Op: op, Err: err}
}

func Validation(op string, msg string) error {
	return &Error{Kind: ErrValidation, Op: op, Msg: msg}
}
