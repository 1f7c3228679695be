package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/shadow-auth/config"
	"go.pilab.hu/shadow-auth/domain"
	"go.pilab.hu/shadow-auth/log"
)

func init() {
	appLogger = log.NewNopLogger()
}

func TestOpenAccountStoreSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := openAccountStore(ctx, &config.ServerConfig{
		StoreDriver: config.StoreDriverSQL,
		DatabaseDSN: ":memory:",
	}, true)
	require.NoError(t, err)
	defer store.close(ctx)

	require.NoError(t, store.health(ctx))

	account := &domain.Account{
		ID:          "acc-1",
		Email:       "ada@example.com",
		DisplayName: domain.DefaultDisplayName,
		Role:        domain.RoleUser,
		CreatedAt:   time.Now().UTC(),
	}
	link := domain.IdentityLink{
		AccountID:  account.ID,
		Provider:   domain.ProviderGoogle,
		ExternalID: "g-1",
		CreatedAt:  account.CreatedAt,
	}
	require.NoError(t, store.repo.CreateWithLink(ctx, account, link))

	found, err := store.repo.FindByEmail(ctx, normalizeEmail("  ADA@example.com "))
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)
}

func TestOpenAccountStoreUnknownDriver(t *testing.T) {
	_, err := openAccountStore(context.Background(), &config.ServerConfig{StoreDriver: "cassandra"}, false)
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestOpenRefreshStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		rs, err := openRefreshStore(ctx, &config.ServerConfig{RefreshStore: config.RefreshStoreMemory})
		require.NoError(t, err)
		assert.Nil(t, rs.health)
		require.NoError(t, rs.store.Save(ctx, "ada@example.com", "token", time.Minute))
		assert.NoError(t, rs.close())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rs, err := openRefreshStore(ctx, &config.ServerConfig{
			RefreshStore:   config.RefreshStoreRedis,
			RedisAddr:      mr.Addr(),
			RedisKeyPrefix: "test",
		})
		require.NoError(t, err)
		require.NoError(t, rs.health(ctx))
		require.NoError(t, rs.store.Save(ctx, "ada@example.com", "token", time.Minute))
		assert.True(t, mr.Exists("test:refresh:ada@example.com"))
		assert.NoError(t, rs.close())
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := openRefreshStore(ctx, &config.ServerConfig{
			RefreshStore: config.RefreshStoreRedis,
			RedisAddr:    addr,
		})
		assert.ErrorContains(t, err, "connect redis")
	})
}

func TestNewAccountView(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	view := newAccountView(&domain.Account{
		ID:          "acc-1",
		Email:       "ada@example.com",
		DisplayName: "Ada",
		Role:        domain.RoleAdmin,
		CreatedAt:   created,
	}, []domain.IdentityLink{
		{AccountID: "acc-1", Provider: domain.ProviderGoogle, ExternalID: "g-1", CreatedAt: created},
		{AccountID: "acc-1", Provider: domain.ProviderGitHub, ExternalID: "42", CreatedAt: created},
	})

	assert.Equal(t, "ADMIN", view.Role)
	require.Len(t, view.Links, 2)
	assert.Equal(t, "github", view.Links[1].Provider)
	assert.Equal(t, "42", view.Links[1].ExternalID)
}
