package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/shadow-auth/domain"
	"go.pilab.hu/shadow-auth/mongodb/testutil"
)

func newTestRepository(t *testing.T) *AccountRepository {
	t.Helper()
	db := testutil.SetupTestMongoDB(t, "shadow_auth_accounts")
	repo, err := NewAccountRepository(context.Background(), db)
	require.NoError(t, err)
	return repo
}

func testAccount(id, email string) *domain.Account {
	return &domain.Account{
		ID:          id,
		Email:       email,
		DisplayName: domain.DefaultDisplayName,
		Role:        domain.RoleUser,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

func testLink(accountID string, provider domain.Provider, externalID string) domain.IdentityLink {
	return domain.IdentityLink{
		AccountID:  accountID,
		Provider:   provider,
		ExternalID: externalID,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestLinkKey(t *testing.T) {
	assert.Equal(t, "google:123", linkKey(domain.ProviderGoogle, "123"))
	assert.Equal(t, "kakao:123", newLinkDocument(testLink("a", domain.ProviderKakao, "123")).Key)
}

func TestAccountRepository_CreateAndFind(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	account := testAccount("acc-1", "a@x.com")
	require.NoError(t, repo.CreateWithLink(ctx, account, testLink("acc-1", domain.ProviderGoogle, "123")))

	got, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, domain.RoleUser, got.Role)

	link, err := repo.FindLink(ctx, "acc-1", domain.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "123", link.ExternalID)

	_, err = repo.FindLink(ctx, "acc-1", domain.ProviderKakao)
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)

	_, err = repo.FindByEmail(ctx, "b@x.com")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountRepository_Uniqueness(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateWithLink(ctx, testAccount("acc-1", "a@x.com"), testLink("acc-1", domain.ProviderGoogle, "123")))
	require.NoError(t, repo.CreateWithLink(ctx, testAccount("acc-2", "b@x.com"), testLink("acc-2", domain.ProviderGitHub, "gh-1")))

	err := repo.CreateWithLink(ctx, testAccount("acc-3", "a@x.com"), testLink("acc-3", domain.ProviderKakao, "k-1"))
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)

	err = repo.CreateWithLink(ctx, testAccount("acc-4", "c@x.com"), testLink("acc-4", domain.ProviderGoogle, "123"))
	assert.ErrorIs(t, err, domain.ErrLinkTaken)

	// Both indexes violated: reported as a duplicate account so the caller retries.
	err = repo.CreateWithLink(ctx, testAccount("acc-5", "a@x.com"), testLink("acc-5", domain.ProviderGoogle, "123"))
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)

	require.NoError(t, repo.AddLink(ctx, testLink("acc-1", domain.ProviderKakao, "k-9")))
	assert.ErrorIs(t, repo.AddLink(ctx, testLink("acc-1", domain.ProviderKakao, "k-10")), domain.ErrDuplicateLink)
	assert.ErrorIs(t, repo.AddLink(ctx, testLink("acc-2", domain.ProviderKakao, "k-9")), domain.ErrLinkTaken)
	assert.ErrorIs(t, repo.AddLink(ctx, testLink("acc-404", domain.ProviderKakao, "k-1")), domain.ErrAccountNotFound)

	links, err := repo.ListLinks(ctx, "acc-1")
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestAccountRepository_DeleteAccount(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateWithLink(ctx, testAccount("acc-1", "a@x.com"), testLink("acc-1", domain.ProviderGoogle, "123")))
	require.NoError(t, repo.DeleteAccount(ctx, "acc-1"))
	assert.ErrorIs(t, repo.DeleteAccount(ctx, "acc-1"), domain.ErrAccountNotFound)

	links, err := repo.ListLinks(ctx, "acc-1")
	require.NoError(t, err)
	assert.Empty(t, links)

	require.NoError(t, repo.CreateWithLink(ctx, testAccount("acc-2", "a@x.com"), testLink("acc-2", domain.ProviderGoogle, "123")))
}
