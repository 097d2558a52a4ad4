// Package apperr defines the error kinds the account service surfaces to its
// callers. Every checked precondition fails with exactly one of these kinds
// and a human-readable reason; the transport layer maps kinds to status codes.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindUnauthorized — token missing, unknown, or not matching the required account.
	KindUnauthorized Kind = iota + 1
	// KindNotFound — referenced account id does not exist.
	KindNotFound
	// KindConflict — a business rule (validation, uniqueness, credential mismatch) rejects the operation.
	KindConflict
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind carried by err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
