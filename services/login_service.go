package services

import (
	"context"

	"go.pilab.hu/shadow-auth/domain"
	serrors "go.pilab.hu/shadow-auth/errors"
	"go.pilab.hu/shadow-auth/internal/federation"
	"go.pilab.hu/shadow-auth/internal/metrics"
	"go.pilab.hu/shadow-auth/log"
)

// LoginResult is what a successful federated login produces.
type LoginResult struct {
	Account *domain.Account
	Tokens  *TokenPair
}

// LoginService turns a provider callback payload into a session: extract, resolve, issue.
// Each step fails with its own typed error and nothing after a failed step runs.
type LoginService struct {
	resolver *AccountResolver
	tokens   *TokenService
	logger   log.Logger
}

func NewLoginService(resolver *AccountResolver, tokens *TokenService, logger log.Logger) *LoginService {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &LoginService{
		resolver: resolver,
		tokens:   tokens,
		logger:   logger,
	}
}

// Login handles the attributes delivered for registration key provider.
func (s *LoginService) Login(ctx context.Context, provider string, attrs map[string]any) (*LoginResult, error) {
	identity, err := federation.Extract(provider, attrs)
	if err != nil {
		return nil, s.fail(ctx, provider, err)
	}

	account, err := s.resolver.Resolve(ctx, identity)
	if err != nil {
		return nil, s.fail(ctx, identity.Provider.String(), err)
	}

	pair, err := s.tokens.Issue(ctx, account.Email, account.Role)
	if err != nil {
		return nil, s.fail(ctx, identity.Provider.String(), err)
	}

	metrics.LoginSuccessTotal.WithLabelValues(identity.Provider.String()).Inc()
	s.logger.Info(ctx, "Federated login succeeded", map[string]interface{}{
		"account_id": account.ID,
		"provider":   identity.Provider.String(),
	})

	return &LoginResult{Account: account, Tokens: pair}, nil
}

func (s *LoginService) fail(ctx context.Context, provider string, err error) error {
	code := serrors.CodeTemporarilyUnavailable
	if authErr, ok := serrors.As(err); ok {
		code = authErr.Code
	}
	metrics.LoginFailureTotal.WithLabelValues(metrics.ProviderLabel(provider), code).Inc()
	s.logger.Warn(ctx, "Federated login failed", map[string]interface{}{
		"provider": provider,
		"code":     code,
		"error":    err.Error(),
	})
	return err
}
