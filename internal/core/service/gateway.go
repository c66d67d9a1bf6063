package service

import (
	"context"

	"github.com/yndnr/sesskeep-go/internal/core/domain"
)

// Gateway is the remote auth API consumed by SessionManager.
//
// Implementations return *domain.DomainError values classified as
// ErrNetwork, ErrAuthentication or ErrValidation.
type Gateway interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error)
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.AuthResponse, error)

	// Logout invalidates accessToken server-side. The manager treats it as
	// best effort.
	Logout(ctx context.Context, accessToken string) error

	RequestPasswordReset(ctx context.Context, req domain.PasswordResetRequest) error
	ResetPassword(ctx context.Context, req domain.NewPasswordRequest) error
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenSet, error)
	InviteUser(ctx context.Context, req domain.InviteUserRequest) error
	GetCurrentUser(ctx context.Context) (*domain.User, error)
}
