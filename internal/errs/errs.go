// Package errs carries the TLM's error taxonomy as a tagged value rather
// than an exception hierarchy: every failure surfaced by the control plane
// is one of USER, NOT_FOUND, INTERNAL, or ANY.
package errs

import (
	"errors"
	"fmt"
)

// Kind discriminates the reason a TLM operation failed.
type Kind string

const (
	// KindUser indicates a client-caused failure: duplicate id, unknown
	// verb, an interface version mismatch, a dependency/conflict diagnostic.
	KindUser Kind = "USER"
	// KindNotFound indicates the addressed entity is absent: unknown
	// tenant, unknown module, a missing interface used as an internal
	// skip signal.
	KindNotFound Kind = "NOT_FOUND"
	// KindInternal indicates an invariant violation or unexpected
	// sub-system failure.
	KindInternal Kind = "INTERNAL"
	// KindAny is the catch-all kind used for signals that are not
	// strictly errors, such as getModuleUser's "in use by tenant X".
	KindAny Kind = "ANY"
)

// Error is the concrete tagged-error value returned by every TLM operation.
type Error struct {
	Kind    Kind
	Message string
	Payload map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error with the same Kind, enabling
// errors.Is(err, &errs.Error{Kind: errs.KindNotFound}) style checks.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and
// KindInternal otherwise -- an untagged error reaching the HTTP boundary is
// itself a bug, so it is reported as a 500 rather than silently becoming a
// client error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// User constructs a USER-kind error.
func User(format string, args ...any) *Error {
	return &Error{Kind: KindUser, Message: fmt.Sprintf(format, args...)}
}

// NotFound constructs a NOT_FOUND-kind error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal constructs an INTERNAL-kind error, optionally wrapping a cause.
func Internal(cause error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &Error{Kind: KindInternal, Message: msg}
}

// AnyErr constructs an ANY-kind signal carrying a payload, e.g. {"tenantId": "..."}.
func AnyErr(message string, payload map[string]any) *Error {
	return &Error{Kind: KindAny, Message: message, Payload: payload}
}
