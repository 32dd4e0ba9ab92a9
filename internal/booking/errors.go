package booking

import (
	"errors"
	"fmt"
)

// Error kinds.  Every error returned by the controller and recommender
// matches exactly one of these with errors.Is.
var (
	// ErrValidation: unknown desk or record, malformed input.  Not retried.
	ErrValidation = errors.New("validation error")
	// ErrCollision: the store rejected a write on (date, desk) or
	// (date, user), or the desk is no longer free.  Callers must re-read
	// the ledger before the user may retry.
	ErrCollision = errors.New("collision")
	// ErrNotAuthorized: cancel attempted by neither the owner nor an admin.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrNotFound: the referenced reservation does not exist or is no
	// longer active.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable: the store could not be reached.  Reads degrade,
	// writes are reported as not applied.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Collision messages surfaced to users.
const (
	MsgDeskTaken     = "desk taken"
	MsgAlreadyBooked = "already booked"
)

// Error carries a user-facing message together with its kind.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches the error's kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Err }

func validationError(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

func collisionError(msg string) error { return &Error{Kind: ErrCollision, Message: msg} }

func notAuthorizedError(msg string) error { return &Error{Kind: ErrNotAuthorized, Message: msg} }

func notFoundError(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func storeUnavailable(op string, err error) error {
	return &Error{Kind: ErrStoreUnavailable, Message: op, Err: err}
}

// Message returns the user-facing message of err, or err.Error() for
// errors not produced by this package.
func Message(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
