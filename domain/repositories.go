package domain

import (
	"context"
	"errors"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrLinkNotFound     = errors.New("identity link not found")
	ErrDuplicateAccount = errors.New("account with this email already exists")
	// ErrDuplicateLink means the account already holds a link for the provider.
	ErrDuplicateLink = errors.New("account already linked to this provider")
	// ErrLinkTaken means the external identity is linked to some account already.
	ErrLinkTaken = errors.New("external identity already linked")
)

// AccountRepository stores accounts together with the identity links they own.
type AccountRepository interface {
	// FindByEmail returns ErrAccountNotFound when no account has the email.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// CreateWithLink persists the account and its first link atomically.
	// It returns ErrDuplicateAccount or ErrLinkTaken on uniqueness violations,
	// in which case nothing is written.
	CreateWithLink(ctx context.Context, account *Account, link IdentityLink) error

	// FindLink returns the link the account holds for provider, or ErrLinkNotFound.
	FindLink(ctx context.Context, accountID string, provider Provider) (*IdentityLink, error)

	// AddLink appends a link to an existing account.
	// It returns ErrDuplicateLink or ErrLinkTaken on uniqueness violations.
	AddLink(ctx context.Context, link IdentityLink) error

	ListLinks(ctx context.Context, accountID string) ([]IdentityLink, error)

	// DeleteAccount removes the account and every link it owns.
	DeleteAccount(ctx context.Context, accountID string) error
}
