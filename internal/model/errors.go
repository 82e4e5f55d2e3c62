package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to callers
type ErrorKind string

const (
	KindInvalidRequest ErrorKind = "INVALID_REQUEST"
	KindUpstream       ErrorKind = "UPSTREAM_ERROR"
	KindTransient      ErrorKind = "TRANSIENT_ERROR"
	KindNotFound       ErrorKind = "NOT_FOUND"
	KindUnauthorized   ErrorKind = "UNAUTHORIZED"
)

// Error is the structured error returned by services. Status is only set for
// upstream failures and carries the backend's HTTP status verbatim.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Details interface{}
	Err     error
}

// Sentinels for errors.Is matching on kind alone.
var (
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest}
	ErrUpstream       = &Error{Kind: KindUpstream}
	ErrTransient      = &Error{Kind: KindTransient}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrUnauthorized   = &Error{Kind: KindUnauthorized}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func InvalidRequest(message string) *Error {
	return &Error{Kind: KindInvalidRequest, Message: message}
}

func Upstream(status int, message string) *Error {
	return &Error{Kind: KindUpstream, Status: status, Message: message}
}

func Transient(message string, err error) *Error {
	return &Error{Kind: KindTransient, Message: message, Err: err}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// KindOf extracts the kind of err, or "" when err is not a *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
