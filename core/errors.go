// Package core defines the error taxonomy shared by every service.
//
// Services never format user-facing text. They return errors whose kind is
// one of the sentinels below; the HTTP boundary maps the kind to a status
// code and, for stale sessions, clears the cookie named by the error.
package core

import (
	"errors"
	"net/http"
)

// Error kinds.
var (
	// ErrUnauthenticated: no credentials, or credentials that are unusable
	// without any remediation hint.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrStaleSession: a credential was presented but no longer maps to a
	// valid identity. The client must drop the cookie.
	ErrStaleSession = errors.New("stale_session")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
	// ErrValidationFailed: malformed input or configuration.
	ErrValidationFailed = errors.New("validation_failed")
	// ErrUpstreamFailure: a third-party endpoint failed or answered with
	// something unexpected. Details are logged, never returned.
	ErrUpstreamFailure = errors.New("upstream_failure")
	ErrRateLimited     = errors.New("rate_limited")
)

// Error is a keyed error of a given kind.
type Error struct {
	Kind error
	Key  string
	// CookieName is set for stale sessions only.
	CookieName string
}

func (e *Error) Error() string {
	return e.Key
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, key string) *Error {
	return &Error{Kind: kind, Key: key}
}

func Unauthenticated(key string) *Error { return newError(ErrUnauthenticated, key) }
func Forbidden(key string) *Error       { return newError(ErrForbidden, key) }
func NotFound(key string) *Error        { return newError(ErrNotFound, key) }
func Conflict(key string) *Error        { return newError(ErrConflict, key) }
func Invalid(key string) *Error         { return newError(ErrValidationFailed, key) }
func Upstream(key string) *Error        { return newError(ErrUpstreamFailure, key) }
func RateLimited(key string) *Error     { return newError(ErrRateLimited, key) }

// StaleSession returns a stale-session error that asks the client to clear
// cookieName.
func StaleSession(cookieName string) *Error {
	return &Error{Kind: ErrStaleSession, Key: "session.stale", CookieName: cookieName}
}

// CookieToClear returns the cookie a stale-session error asks to clear.
func CookieToClear(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && errors.Is(e.Kind, ErrStaleSession) && e.CookieName != "" {
		return e.CookieName, true
	}
	return "", false
}

// Key returns the dotted key of err, or fallback when err carries none.
func Key(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Key != "" {
		return e.Key
	}
	return fallback
}

// HTTPStatus maps an error kind to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrStaleSession):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstreamFailure):
		return http.StatusBadGateway
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
