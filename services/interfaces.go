package services

import (
	"context"

	"go.pilab.hu/shadow-auth/domain"
)

// AccessTokenValidator is what the authentication middleware needs from the token service.
type AccessTokenValidator interface {
	ValidateAccess(ctx context.Context, token string) (*domain.Principal, error)
}

// SessionManager covers the refresh and logout endpoints.
type SessionManager interface {
	RotateRefresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Revoke(ctx context.Context, email string) error
}

// Authenticator completes a federated login.
type Authenticator interface {
	Login(ctx context.Context, provider string, attrs map[string]any) (*LoginResult, error)
}

var (
	_ AccessTokenValidator = (*TokenService)(nil)
	_ SessionManager       = (*TokenService)(nil)
	_ Authenticator        = (*LoginService)(nil)
)
