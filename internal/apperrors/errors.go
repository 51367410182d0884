// Package apperrors defines the typed errors returned by the domain layer.
package apperrors

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindAuthorization Kind = "FORBIDDEN"
	KindNotFound      Kind = "NOT_FOUND"
	KindConflict      Kind = "CONFLICT"
	KindUnauthorized  Kind = "UNAUTHORIZED"
)

// Error is a domain error with a kind, an optional machine code and a
// client-safe message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code when the target has one, otherwise by kind. This lets
// callers test for a specific failure (ErrLastAdmin) or a whole class
// (ErrValidation) with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" {
		return e.Code == t.Code
	}
	return e.Kind == t.Kind
}

// Class sentinels.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrForbidden  = &Error{Kind: KindAuthorization}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}

	ErrUnauthorized = &Error{Kind: KindUnauthorized}
)

// Named failures of the membership and invitation engine.
var (
	ErrInvitationProcessed = &Error{Kind: KindValidation, Code: "INVITATION_PROCESSED", Message: "Invitation has already been processed"}
	ErrInvitationExpired   = &Error{Kind: KindValidation, Code: "INVITATION_EXPIRED", Message: "Invitation has expired"}
	ErrLastAdmin           = &Error{Kind: KindValidation, Code: "LAST_ADMIN", Message: "Cannot remove the last admin"}
	ErrAlreadyMember       = &Error{Kind: KindConflict, Code: "ALREADY_MEMBER", Message: "User is already a member of this group"}
	ErrAlreadyInvited      = &Error{Kind: KindConflict, Code: "ALREADY_INVITED", Message: "An invitation has already been sent to this email"}
	ErrEmailMismatch       = &Error{Kind: KindAuthorization, Code: "EMAIL_MISMATCH", Message: "Not authorized"}
)

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// As returns the domain error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatus maps err to a response status. Anything that is not a domain
// error is an internal failure.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
