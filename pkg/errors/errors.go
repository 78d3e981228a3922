package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur during a run
type ErrorType string

const (
	// Run taxonomy
	ErrorTypePostLinkNotFound       ErrorType = "post_link_not_found"
	ErrorTypeOverlayOpenTimeout     ErrorType = "overlay_open_timeout"
	ErrorTypeNoMediaFound           ErrorType = "no_media_found"
	ErrorTypeAdvanceControlNotFound ErrorType = "advance_control_not_found"
	ErrorTypeRunAborted             ErrorType = "run_aborted"
	ErrorTypeExportFailure          ErrorType = "export_failure"

	// Preconditions and overlay lifecycle
	ErrorTypePrecondition ErrorType = "precondition"
	ErrorTypeOverlayBusy  ErrorType = "overlay_busy"
	ErrorTypeOverlayStuck ErrorType = "overlay_stuck"

	// Media fetch
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a typed error carrying the failing post (if any) and an HTTP code for fetch errors
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	PostID  string
	Err     error
}

// New creates a typed error
func New(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a typed error around a cause
func Wrap(errType ErrorType, err error, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...), Err: err}
}

// ForPost returns a copy of the error bound to a post ID
func (e *Error) ForPost(id string) *Error {
	cp := *e
	cp.PostID = id
	return &cp
}

func (e *Error) Error() string {
	msg := string(e.Type) + ": " + e.Message
	if e.Code != 0 {
		msg = fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	if e.PostID != "" {
		msg += " [post " + e.PostID + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by type, so errors.Is(err, &Error{Type: X}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given type
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

// FromStatusCode maps a media fetch HTTP status to a typed error
func FromStatusCode(statusCode int, url string) *Error {
	var t ErrorType
	switch {
	case statusCode == 429:
		t = ErrorTypeRateLimit
	case statusCode == 404 || statusCode == 410:
		t = ErrorTypeNotFound
	case statusCode >= 500:
		t = ErrorTypeServerError
	default:
		t = ErrorTypeUnknown
	}
	return &Error{Type: t, Code: statusCode, Message: fmt.Sprintf("unexpected status fetching %s", url)}
}
