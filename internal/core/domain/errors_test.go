package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("SK-TEST-1000", "test message"),
			expected: "[SK-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("SK-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[SK-TEST-1001] test message: extra info",
		},
		{
			name:     "error with replaced message",
			err:      ErrAuthentication.WithMessage("Invalid credentials"),
			expected: "[SK-AUTH-4010] Invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	derived := ErrNetwork.WithMessage("Login failed").WithCause(fmt.Errorf("dial tcp: refused"))

	if !errors.Is(derived, ErrNetwork) {
		t.Error("errors.Is should match by code after WithMessage/WithCause")
	}
	if errors.Is(derived, ErrAuthentication) {
		t.Error("errors.Is should not match a different code")
	}
	if errors.Is(ErrNetwork, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}

	// Sentinels must not be mutated by the With* helpers.
	if ErrNetwork.Message != "network error" || ErrNetwork.Cause != nil {
		t.Errorf("sentinel mutated: %+v", ErrNetwork)
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := ErrStorage.Wrap(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestIsDomainErrorAndGetErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrValidation.WithDetails("x"))

	if !IsDomainError(wrapped, "") {
		t.Error("IsDomainError(wrapped, \"\") = false")
	}
	if !IsDomainError(wrapped, "SK-ARG-4000") {
		t.Error("IsDomainError(wrapped, SK-ARG-4000) = false")
	}
	if IsDomainError(errors.New("plain"), "") {
		t.Error("IsDomainError(plain) = true")
	}
	if got := GetErrorCode(wrapped); got != "SK-ARG-4000" {
		t.Errorf("GetErrorCode() = %q", got)
	}
	if got := GetErrorCode(errors.New("plain")); got != "" {
		t.Errorf("GetErrorCode(plain) = %q, want empty", got)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindUnknown},
		{errors.New("plain"), KindUnknown},
		{ErrNetwork, KindNetwork},
		{ErrAuthentication.WithMessage("Token refresh failed"), KindAuthentication},
		{fmt.Errorf("ctx: %w", ErrValidation), KindValidation},
		{ErrNoRefreshToken, KindNoRefreshToken},
		{ErrCorruptedState, KindCorruptedState},
		{ErrStorage.WithCause(errors.New("disk full")), KindStorage},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	if !Retryable(ErrNetwork) || Retryable(ErrAuthentication) {
		t.Error("only network errors are retryable")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"domain", ErrAuthentication.WithMessage("Invalid credentials"), "Invalid credentials"},
		{"wrapped domain", fmt.Errorf("login: %w", ErrNetwork.WithMessage("Login failed")), "Login failed"},
		{"plain", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
