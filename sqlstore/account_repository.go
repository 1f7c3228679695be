package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.pilab.hu/shadow-auth/domain"
)

// AccountRepository implements domain.AccountRepository on top of bun.
type AccountRepository struct {
	db *bun.DB
}

var _ domain.AccountRepository = (*AccountRepository)(nil)

func NewAccountRepository(db *bun.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	m := new(accountModel)
	err := r.db.NewSelect().
		Model(m).
		Where("email = ?", email).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return m.toDomain(), nil
}

func (r *AccountRepository) CreateWithLink(ctx context.Context, account *domain.Account, link domain.IdentityLink) error {
	link.AccountID = account.ID

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(newAccountModel(account)).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(newIdentityLinkModel(link)).Exec(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if sentinel := uniqueViolation(err); sentinel != nil {
			return sentinel
		}
		return fmt.Errorf("create account with link: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindLink(ctx context.Context, accountID string, provider domain.Provider) (*domain.IdentityLink, error) {
	m := new(identityLinkModel)
	err := r.db.NewSelect().
		Model(m).
		Where("account_id = ?", accountID).
		Where("provider = ?", provider.String()).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity link: %w", err)
	}
	link := m.toDomain()
	return &link, nil
}

func (r *AccountRepository) AddLink(ctx context.Context, link domain.IdentityLink) error {
	_, err := r.db.NewInsert().Model(newIdentityLinkModel(link)).Exec(ctx)
	if err != nil {
		if sentinel := uniqueViolation(err); sentinel != nil {
			return sentinel
		}
		if isForeignKeyViolation(err) {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("add identity link: %w", err)
	}
	return nil
}

func (r *AccountRepository) ListLinks(ctx context.Context, accountID string) ([]domain.IdentityLink, error) {
	var models []identityLinkModel
	err := r.db.NewSelect().
		Model(&models).
		Where("account_id = ?", accountID).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identity links: %w", err)
	}

	links := make([]domain.IdentityLink, 0, len(models))
	for i := range models {
		links = append(links, models[i].toDomain())
	}
	return links, nil
}

func (r *AccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*identityLinkModel)(nil)).
			Where("account_id = ?", accountID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete identity links: %w", err)
		}

		res, err := tx.NewDelete().
			Model((*accountModel)(nil)).
			Where("id = ?", accountID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return domain.ErrAccountNotFound
		}
		return nil
	})
}

// uniqueViolation maps a unique index violation to the matching domain error, or nil.
// Postgres reports the index name, SQLite reports the columns.
func uniqueViolation(err error) error {
	var detail string

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		if pgErr.Field('C') != "23505" {
			return nil
		}
		detail = pgErr.Field('n')
	} else {
		msg := err.Error()
		i := strings.Index(msg, "UNIQUE constraint failed:")
		if i < 0 {
			return nil
		}
		detail = msg[i:]
	}

	switch {
	case strings.Contains(detail, idxAccountsEmail), strings.Contains(detail, "accounts.email"):
		return domain.ErrDuplicateAccount
	case strings.Contains(detail, idxIdentityLinksExternal), strings.Contains(detail, "identity_links.external_id"):
		return domain.ErrLinkTaken
	case strings.Contains(detail, idxIdentityLinksAccountProv), strings.Contains(detail, "identity_links.account_id"):
		return domain.ErrDuplicateLink
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
