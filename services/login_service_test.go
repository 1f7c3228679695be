package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/shadow-auth/domain"
	serrors "go.pilab.hu/shadow-auth/errors"
	"go.pilab.hu/shadow-auth/sqlstore"
)

type loginFixture struct {
	login  *LoginService
	tokens *TokenService
	repo   *sqlstore.AccountRepository
}

func newLoginFixture(t *testing.T) loginFixture {
	t.Helper()
	repo := newSQLiteRepository(t)
	tokens := NewTokenService(newTestSigner(), newMemoryStore(t), testTokenConfig(), WithClock(newFakeClock().Now))
	return loginFixture{
		login:  NewLoginService(NewAccountResolver(repo, nil), tokens, nil),
		tokens: tokens,
		repo:   repo,
	}
}

func TestLoginService_GoogleFirstLogin(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	result, err := f.login.Login(ctx, "google", map[string]any{
		"sub":   "123",
		"email": "a@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", result.Account.Email)
	assert.Equal(t, domain.RoleUser, result.Account.Role)

	link, err := f.repo.FindLink(ctx, result.Account.ID, domain.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "123", link.ExternalID)

	principal, err := f.tokens.ValidateAccess(ctx, result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", principal.Subject)
	assert.Equal(t, domain.RoleUser, principal.Role)

	_, err = f.tokens.RotateRefresh(ctx, result.Tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestLoginService_ProvidersShareAccountByEmail(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	google, err := f.login.Login(ctx, "google", map[string]any{"sub": "123", "email": "a@x.com"})
	require.NoError(t, err)

	kakao, err := f.login.Login(ctx, "Kakao", map[string]any{
		"id":            json.Number("4242"),
		"kakao_account": map[string]any{"email": "a@x.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, google.Account.ID, kakao.Account.ID)

	github, err := f.login.Login(ctx, "github", map[string]any{"id": float64(777), "email": "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, google.Account.ID, github.Account.ID)

	links, err := f.repo.ListLinks(ctx, google.Account.ID)
	require.NoError(t, err)
	assert.Len(t, links, 3)
}

func TestLoginService_Failures(t *testing.T) {
	tests := []struct {
		name       string
		provider   string
		attrs      map[string]any
		wantErr    error
		wantStatus int
	}{
		{
			name:       "unsupported provider",
			provider:   "twitter",
			attrs:      map[string]any{"id": "1", "email": "a@x.com"},
			wantErr:    serrors.ErrUnsupportedProvider,
			wantStatus: 400,
		},
		{
			name:       "kakao without email consent",
			provider:   "kakao",
			attrs:      map[string]any{"id": json.Number("4242"), "kakao_account": map[string]any{}},
			wantErr:    serrors.ErrMissingEmail,
			wantStatus: 400,
		},
		{
			name:       "facebook without id",
			provider:   "facebook",
			attrs:      map[string]any{"email": "a@x.com"},
			wantErr:    serrors.ErrInvalidIdentity,
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLoginFixture(t)
			ctx := context.Background()

			result, err := f.login.Login(ctx, tt.provider, tt.attrs)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantStatus, serrors.HTTPStatus(err))

			_, err = f.repo.FindByEmail(ctx, "a@x.com")
			assert.ErrorIs(t, err, domain.ErrAccountNotFound)
		})
	}
}

func TestLoginService_ConflictIssuesNoTokens(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	first, err := f.login.Login(ctx, "google", map[string]any{"sub": "123", "email": "a@x.com"})
	require.NoError(t, err)

	_, err = f.login.Login(ctx, "google", map[string]any{"sub": "999", "email": "a@x.com"})
	assert.ErrorIs(t, err, serrors.ErrIdentityConflict)

	// The earlier session is still the live one.
	_, err = f.tokens.RotateRefresh(ctx, first.Tokens.RefreshToken)
	assert.NoError(t, err)
}
