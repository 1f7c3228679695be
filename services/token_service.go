package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.pilab.hu/shadow-auth/cache"
	"go.pilab.hu/shadow-auth/domain"
	serrors "go.pilab.hu/shadow-auth/errors"
	"go.pilab.hu/shadow-auth/internal/audit"
	"go.pilab.hu/shadow-auth/internal/metrics"
	"go.pilab.hu/shadow-auth/log"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var errWrongTokenType = errors.New("unexpected token type")

// TokenClaims is the payload of both token kinds. Refresh tokens carry the role so that
// rotation can re-issue without an account lookup.
type TokenClaims struct {
	Role string `json:"role"`
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a login or a rotation.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenServiceConfig holds issuer and lifetimes.
type TokenServiceConfig struct {
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// TokenService mints, verifies, rotates and revokes tokens. Access tokens are verified
// statelessly; each subject has at most one live refresh token in the store.
type TokenService struct {
	signer     *TokenSigner
	store      cache.RefreshTokenStore
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	logger     log.Logger
}

type TokenServiceOption func(*TokenService)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) TokenServiceOption {
	return func(s *TokenService) {
		s.now = now
	}
}

func WithTokenLogger(logger log.Logger) TokenServiceOption {
	return func(s *TokenService) {
		s.logger = logger
	}
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signer *TokenSigner, store cache.RefreshTokenStore, cfg TokenServiceConfig, opts ...TokenServiceOption) *TokenService {
	s := &TokenService{
		signer:     signer,
		store:      store,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
		logger:     log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshTokenTTL is the lifetime used for the refresh cookie.
func (s *TokenService) RefreshTokenTTL() time.Duration {
	return s.refreshTTL
}

// Issue creates a fresh token pair and makes its refresh token the subject's only valid one.
func (s *TokenService) Issue(ctx context.Context, email string, role domain.Role) (*TokenPair, error) {
	now := s.now()

	refreshToken, refreshExp, err := s.createToken(email, role, TokenTypeRefresh, now, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	accessToken, accessExp, err := s.createToken(email, role, TokenTypeAccess, now, s.accessTTL)
	if err != nil {
		return nil, err
	}

	// The write is idempotent; let it finish even if the caller has gone away.
	if err := s.store.Save(context.WithoutCancel(ctx), email, refreshToken, s.refreshTTL); err != nil {
		s.logger.Error(ctx, "Failed to store refresh token", err, map[string]interface{}{"subject": email})
		return nil, serrors.Unavailable(fmt.Errorf("store refresh token: %w", err))
	}

	metrics.TokensIssuedTotal.Inc()

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ValidateAccess verifies an access token without touching the store.
func (s *TokenService) ValidateAccess(_ context.Context, tokenValue string) (*domain.Principal, error) {
	claims, err := s.parse(tokenValue, TokenTypeAccess)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, serrors.TokenExpired()
		}
		return nil, serrors.TokenInvalid(err)
	}

	return &domain.Principal{
		Subject: claims.Subject,
		Role:    domain.Role(claims.Role),
	}, nil
}

// RotateRefresh exchanges a refresh token for a new pair. The presented token is consumed
// with a compare-and-delete, so of two concurrent rotations with the same token only one wins.
func (s *TokenService) RotateRefresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		metrics.RefreshRejectedTotal.Inc()
		s.logger.Debug(ctx, "Refresh token rejected", map[string]interface{}{"reason": err.Error()})
		return nil, serrors.RefreshTokenInvalid()
	}

	consumed, err := s.store.CompareAndDelete(ctx, claims.Subject, refreshToken)
	if err != nil {
		s.logger.Error(ctx, "Failed to consume refresh token", err, map[string]interface{}{"subject": claims.Subject})
		return nil, serrors.Unavailable(fmt.Errorf("consume refresh token: %w", err))
	}
	if !consumed {
		metrics.RefreshRejectedTotal.Inc()
		s.logger.Warn(ctx, "Stale or revoked refresh token presented", map[string]interface{}{"subject": claims.Subject})
		return nil, serrors.RefreshTokenInvalid()
	}

	pair, err := s.Issue(ctx, claims.Subject, domain.Role(claims.Role))
	if err != nil {
		return nil, err
	}

	metrics.TokensRefreshedTotal.Inc()
	return pair, nil
}

// Revoke drops the subject's refresh token. Access tokens already handed out stay valid
// until they expire.
func (s *TokenService) Revoke(ctx context.Context, email string) error {
	if err := s.store.Delete(ctx, email); err != nil {
		return serrors.Unavailable(fmt.Errorf("revoke refresh token: %w", err))
	}
	metrics.TokensRevokedTotal.Inc()
	audit.Log(audit.Event{Action: audit.ActionSessionRevoked, Subject: email, Success: true})
	return nil
}

func (s *TokenService) createToken(subject string, role domain.Role, tokenType string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := TokenClaims{
		Role: role.String(),
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := s.signer.Sign(claims, "")
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, expiresAt, nil
}

func (s *TokenService) parse(tokenValue, tokenType string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	if _, err := s.signer.Parse(tokenValue, claims, opts...); err != nil {
		return nil, err
	}
	if claims.Type != tokenType {
		return nil, errWrongTokenType
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidSubject
	}
	if !domain.Role(claims.Role).Valid() {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
