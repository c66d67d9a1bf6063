package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes have the form SK-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "SK-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithMessage returns a copy of the error with a different message.
// The code, and therefore errors.Is identity, is unchanged.
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: message,
		Details: e.Details,
		Cause:   e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

var (
	// ErrNetwork indicates a transport failure, timeout or unavailable server.
	// Callers may retry.
	ErrNetwork = NewDomainError("SK-NET-5030", "network error")

	// ErrAuthentication indicates rejected credentials or an invalid token.
	ErrAuthentication = NewDomainError("SK-AUTH-4010", "authentication failed")

	// ErrValidation indicates a malformed request or response.
	ErrValidation = NewDomainError("SK-ARG-4000", "validation failed")

	// ErrNoRefreshToken indicates a refresh was attempted with no refresh
	// token persisted.
	ErrNoRefreshToken = NewDomainError("SK-SESS-4012", "no refresh token available")

	// ErrCorruptedState indicates a persisted record failed to decode.
	// It is recovered internally and never returned by the session manager.
	ErrCorruptedState = NewDomainError("SK-STORE-4220", "corrupted session state")

	// ErrStorage indicates a KeyValueStore I/O failure.
	ErrStorage = NewDomainError("SK-STORE-5000", "storage error")
)

// ErrorKind classifies an error for callers that branch on failure type.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork
	KindAuthentication
	KindValidation
	KindNoRefreshToken
	KindCorruptedState
	KindStorage
)

var kindNames = map[ErrorKind]string{
	KindUnknown:        "unknown",
	KindNetwork:        "network",
	KindAuthentication: "authentication",
	KindValidation:     "validation",
	KindNoRefreshToken: "no_refresh_token",
	KindCorruptedState: "corrupted_state",
	KindStorage:        "storage",
}

// String returns the snake_case name of the kind.
func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// KindOf returns the kind of the outermost DomainError in err's chain.
// A nil error is KindUnknown.
func KindOf(err error) ErrorKind {
	switch GetErrorCode(err) {
	case ErrNetwork.Code:
		return KindNetwork
	case ErrAuthentication.Code:
		return KindAuthentication
	case ErrValidation.Code:
		return KindValidation
	case ErrNoRefreshToken.Code:
		return KindNoRefreshToken
	case ErrCorruptedState.Code:
		return KindCorruptedState
	case ErrStorage.Code:
		return KindStorage
	default:
		return KindUnknown
	}
}

// Retryable reports whether retrying the failed operation may succeed.
func Retryable(err error) bool {
	return KindOf(err) == KindNetwork
}

// UserMessage returns the message shown to end users for err: the message of
// the outermost DomainError, or err.Error() for other errors.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
