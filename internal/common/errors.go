// Package common defines shared constants, helpers and the error taxonomy
// used across client and server layers of ContactKeeper. Callers should use
// errors.Is to match these values and KindOf to classify an arbitrary error.
package common

import "errors"

// Kind classifies a failure so the transport layer can choose a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad request"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	default:
		return "internal error"
	}
}

// Error is a domain failure carrying a fixed Kind and a message that is safe
// to show to the caller. Err keeps the underlying cause, if any.
type Error struct {
	Kind Kind
	Msg  string
	Err  error

	// generic marks the per-kind sentinels below; only those match by kind.
	generic bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the generic sentinel of e's Kind, so any error
// built with NewError(KindNotFound, ...) matches ErrorNotFound while distinct
// specific errors of one kind stay distinguishable.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.generic && t.Kind == e.Kind
}

// NewError returns an *Error of the given kind.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap returns an *Error of the given kind keeping err as the cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message of err. Internal failures are
// never described beyond their kind.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Msg
	}
	return KindInternal.String()
}

func sentinel(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, generic: true}
}

var (
	// Repository-level errors.
	ErrorNotFound = sentinel(KindNotFound, "not found")
	ErrorConflict = sentinel(KindConflict, "already exists")

	// Service-level errors.
	ErrorInternal     = sentinel(KindInternal, "internal error")
	ErrorUnauthorized = sentinel(KindUnauthorized, "unauthorized")
	ErrorBadRequest   = sentinel(KindBadRequest, "bad request")

	// Session token errors. All of them are unauthorized to the caller.
	ErrTokenMalformed    = NewError(KindUnauthorized, "token malformed")
	ErrTokenBadSignature = NewError(KindUnauthorized, "token signature invalid")
	ErrTokenExpired      = NewError(KindUnauthorized, "token expired")
)
