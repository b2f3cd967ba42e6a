// Package fault defines the tagged error kinds produced by an attendance run.
// Every failure that leaves a flow is wrapped in an *Error so the top-level
// runner can log it by kind instead of by message.
package fault

import (
	"errors"
	"fmt"
)

// Kind categorizes a run failure.
type Kind string

const (
	// Config indicates missing credentials or an invalid configuration value.
	Config Kind = "config"
	// NotFound indicates an element did not appear within its wait.
	NotFound Kind = "not_found"
	// Interaction indicates an element was found but could not be used.
	Interaction Kind = "interaction"
	// Session indicates the post-login browser state could not be read.
	Session Kind = "session"
	// Remote indicates the attendance API call failed.
	Remote Kind = "remote"
	// Browser indicates the browser could not be launched or driven.
	Browser Kind = "browser"
)

// Reason refines an Interaction failure.
type Reason string

const (
	ReasonIntercepted     Reason = "intercepted"
	ReasonNotInteractable Reason = "not_interactable"
	ReasonInvisible       Reason = "invisible"
)

// Error is a run failure with a kind, the operation that failed and an optional cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Reason  Reason
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Reason)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a kind, preserving it as the cause. A nil err yields nil.
func Wrap(err error, kind Kind, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

// Wrapf wraps err with a kind and a formatted message.
func Wrapf(err error, kind Kind, op, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Cause: err}
}

// InteractionError creates an Interaction error carrying a reason.
func InteractionError(op string, reason Reason, cause error) *Error {
	return &Error{Kind: Interaction, Op: op, Message: "element not usable", Reason: reason, Cause: cause}
}

// KindOf returns the kind of the outermost *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// ReasonOf returns the interaction reason of err, if any.
func ReasonOf(err error) Reason {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
