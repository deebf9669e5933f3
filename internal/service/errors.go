package service

import "fmt"

// ValidationError reports missing or malformed input the caller can fix.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError reports a request that collides with existing state, such
// as a second active signup for the same email and date.
type ConflictError struct{ Msg string }

func (e *ConflictError) Error() string { return e.Msg }

// NotFoundError reports that the addressed record does not exist or is no
// longer in a state the operation applies to.
type NotFoundError struct{ Msg string }

func (e *NotFoundError) Error() string { return e.Msg }

// DependencyError wraps a store or broker failure.  Its message is never
// shown to API callers.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *DependencyError) Unwrap() error { return e.Err }

// Messages surfaced to API callers.
const (
	MsgMissingFields   = "missing required fields"
	MsgInvalidEmail    = "invalid email"
	MsgInvalidDate     = "invalid signup date"
	MsgAlreadySignedUp = "already signed up for this date"
	MsgSignupNotFound  = "signup not found"
)
