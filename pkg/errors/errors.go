package errors

import (
	"errors"
	"fmt"
)

var (
	ErrBackendUnavailable = errors.New("backend unavailable and mock fallback is disabled")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input data")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("token is invalid")
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NormalizationError reports a raw record that cannot be addressed because a
// required identifying field is missing.
type NormalizationError struct {
	Domain string
	Index  int
	Field  string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s[%d]: required field %q is missing", e.Domain, e.Index, e.Field)
}

// TransportKind classifies control-plane request failures.
type TransportKind string

const (
	KindTimeout      TransportKind = "timeout"
	KindNetwork      TransportKind = "network"
	KindUnauthorized TransportKind = "unauthorized"
	KindForbidden    TransportKind = "forbidden"
	KindNotFound     TransportKind = "not_found"
	KindServer       TransportKind = "server"
	KindStatus       TransportKind = "status"
	KindDecode       TransportKind = "decode"
)

type TransportError struct {
	Op         string
	StatusCode int
	Kind       TransportKind
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Kind, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the generic sentinels for the common kinds.
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

// Notice is the passive, user-facing message for a transport failure.
func (e *TransportError) Notice() string {
	switch e.Kind {
	case KindTimeout:
		return "Request timeout. Please check your connection"
	case KindNetwork:
		return "Unable to connect. Please check your network"
	case KindUnauthorized:
		return "Session expired. Please sign in again"
	case KindForbidden:
		return "You do not have permission to perform this action"
	case KindNotFound:
		return "Resource not found"
	case KindServer:
		return "Server error. Please try again later"
	case KindDecode:
		return "Unexpected response from the control plane"
	default:
		return "Request failed"
	}
}
