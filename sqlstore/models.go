package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
	"go.pilab.hu/shadow-auth/domain"
)

type accountModel struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID          string    `bun:"id,pk"`
	Email       string    `bun:"email,notnull"`
	DisplayName string    `bun:"display_name,notnull"`
	Role        string    `bun:"role,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

type identityLinkModel struct {
	bun.BaseModel `bun:"table:identity_links,alias:l"`

	ID         int64     `bun:"id,pk,autoincrement"`
	AccountID  string    `bun:"account_id,notnull"`
	Provider   string    `bun:"provider,notnull"`
	ExternalID string    `bun:"external_id,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

func newAccountModel(a *domain.Account) *accountModel {
	return &accountModel{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Role:        a.Role.String(),
		CreatedAt:   a.CreatedAt,
	}
}

func (m *accountModel) toDomain() *domain.Account {
	return &domain.Account{
		ID:          m.ID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		Role:        domain.Role(m.Role),
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

func newIdentityLinkModel(l domain.IdentityLink) *identityLinkModel {
	return &identityLinkModel{
		AccountID:  l.AccountID,
		Provider:   l.Provider.String(),
		ExternalID: l.ExternalID,
		CreatedAt:  l.CreatedAt,
	}
}

func (m *identityLinkModel) toDomain() domain.IdentityLink {
	return domain.IdentityLink{
		AccountID:  m.AccountID,
		Provider:   domain.Provider(m.Provider),
		ExternalID: m.ExternalID,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}
