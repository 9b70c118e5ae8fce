package auth

import (
	"context"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
)

// AuthServiceInterface defines the contract for authentication operations.
// This enables mocking for handler tests without hashing passwords.
type AuthServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	GoogleAuthURL(state string) (string, error)
	HandleGoogleCallback(ctx context.Context, code string) (*AuthResponse, error)
}

// Ensure Service implements AuthServiceInterface
var _ AuthServiceInterface = (*Service)(nil)
