package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can decide whether to retry,
// surface it, or translate it into a transport status.
type Kind int

const (
	KindNotFound Kind = iota
	KindForbidden
	KindBadRequest
	KindConflict
	KindInvalidToken
	KindInfrastructure
)

// Sentinels for errors.Is checks on the bare kind.
var (
	ErrNotFound       = &Error{kind: KindNotFound, msg: "not found"}
	ErrForbidden      = &Error{kind: KindForbidden, msg: "forbidden"}
	ErrBadRequest     = &Error{kind: KindBadRequest, msg: "bad request"}
	ErrConflict       = &Error{kind: KindConflict, msg: "conflict"}
	ErrInvalidToken   = &Error{kind: KindInvalidToken, msg: "invalid token"}
	ErrInfrastructure = &Error{kind: KindInfrastructure, msg: "infrastructure error"}
)

type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

// Is matches any error of the same kind, so
// errors.Is(err, apperrors.ErrForbidden) works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == t.kind
}

func E(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{kind: kind, msg: msg, err: err}
}

func NotFound(msg string) *Error     { return E(KindNotFound, msg) }
func Forbidden(msg string) *Error    { return E(KindForbidden, msg) }
func BadRequest(msg string) *Error   { return E(KindBadRequest, msg) }
func Conflict(msg string) *Error     { return E(KindConflict, msg) }
func InvalidToken(msg string) *Error { return E(KindInvalidToken, msg) }

func Infrastructure(err error) *Error {
	return Wrap(KindInfrastructure, "infrastructure error", err)
}

// Retryable reports whether the caller may retry the operation.
// Only infrastructure failures (storage, timeouts) qualify; every
// other kind is terminal for the current request.
func Retryable(err error) bool {
	return errors.Is(err, ErrInfrastructure)
}

// HTTPStatus maps an error to the transport status the handlers return.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindInvalidToken:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
