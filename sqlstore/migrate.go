package sqlstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

const (
	idxAccountsEmail            = "idx_accounts_email"
	idxIdentityLinksExternal    = "idx_identity_links_external"
	idxIdentityLinksAccountProv = "idx_identity_links_account_provider"
)

// Migrate creates the account tables and their unique indexes. It is idempotent.
func Migrate(ctx context.Context, db *bun.DB) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewCreateTable().
			Model((*accountModel)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create accounts table: %w", err)
		}

		if _, err := tx.NewCreateTable().
			Model((*identityLinkModel)(nil)).
			IfNotExists().
			ForeignKey(`("account_id") REFERENCES "accounts" ("id") ON DELETE CASCADE`).
			Exec(ctx); err != nil {
			return fmt.Errorf("create identity_links table: %w", err)
		}

		indexes := []struct {
			model   interface{}
			name    string
			columns []string
		}{
			{(*accountModel)(nil), idxAccountsEmail, []string{"email"}},
			{(*identityLinkModel)(nil), idxIdentityLinksExternal, []string{"provider", "external_id"}},
			{(*identityLinkModel)(nil), idxIdentityLinksAccountProv, []string{"account_id", "provider"}},
		}
		for _, idx := range indexes {
			if _, err := tx.NewCreateIndex().
				Model(idx.model).
				Index(idx.name).
				Unique().
				IfNotExists().
				Column(idx.columns...).
				Exec(ctx); err != nil {
				return fmt.Errorf("create index %s: %w", idx.name, err)
			}
		}
		return nil
	})
}
