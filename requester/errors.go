package requester

import (
	"errors"
	"fmt"
)

// ErrorKey is the UserInfo key under which the parsed (or raw) body of a failed
// response is stored
const ErrorKey = "RequestKitErrorKey"

// Kind classifies a failed call
type Kind int

const (
	// KindParamEncoding means the params could not be serialized before sending
	KindParamEncoding Kind = iota + 1
	// KindRequestBuild means no request could be built from route and configuration
	KindRequestBuild
	// KindTransport means the session failed without an HTTP response
	KindTransport
	// KindHTTPStatus means the response status was outside [200, 300)
	KindHTTPStatus
	// KindDecode means a successful response body did not decode into the result type
	KindDecode
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindParamEncoding:
		return "param_encoding"
	case KindRequestBuild:
		return "request_build"
	case KindTransport:
		return "transport"
	case KindHTTPStatus:
		return "http_status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the single failure value every call resolves to
type Error struct {
	Kind Kind
	// Domain is the configuration's error domain
	Domain string
	// StatusCode is the HTTP status, 0 when no response was received
	StatusCode int
	// UserInfo carries diagnostics; the error body lives under ErrorKey
	UserInfo map[string]any
	// Err is the underlying cause
	Err error
}

func newError(kind Kind, domain string, err error) *Error {
	return &Error{Kind: kind, Domain: domain, Err: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Domain, e.Kind)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Body returns the parsed JSON value or raw text of a failed response
func (e *Error) Body() (any, bool) {
	if e.UserInfo == nil {
		return nil, false
	}
	body, ok := e.UserInfo[ErrorKey]
	return body, ok
}

// AsError extracts an *Error from err
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind checks whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

// IsHTTPStatus checks whether err is an HTTP status failure with the given code
func IsHTTPStatus(err error, code int) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindHTTPStatus && e.StatusCode == code
}
