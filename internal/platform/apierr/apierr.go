// Package apierr is the closed set of client-facing error kinds and the one
// place they are turned into HTTP responses.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuth
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Status is the HTTP status code a kind is reported with. Upstream failures
// are reported as bad requests; the caller cannot tell a provider outage
// from a provider rejecting its input.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindUpstream:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Msg is safe to show to clients; Err is not.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

func Validationf(format string, a ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, a...)}
}

func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

func Unauthorized(msg string) error { return &Error{Kind: KindAuth, Msg: msg} }

// Upstream classifies a failure of an external provider. err is kept for logs.
func Upstream(msg string, err error) error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: err}
}

// Wrap classifies err under kind, keeping it in the chain for errors.Is.
func Wrap(kind Kind, err error, msg string) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsAuth(err error) bool       { return KindOf(err) == KindAuth }
func IsUpstream(err error) bool   { return KindOf(err) == KindUpstream }
