package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.pilab.hu/shadow-auth/domain"
	serrors "go.pilab.hu/shadow-auth/errors"
	"go.pilab.hu/shadow-auth/internal/audit"
	"go.pilab.hu/shadow-auth/internal/metrics"
	"go.pilab.hu/shadow-auth/log"
)

const defaultResolveAttempts = 3

// AccountResolver maps a canonical identity to a local account, creating the account on
// first login and attaching further provider links to it afterwards.
type AccountResolver struct {
	repo        domain.AccountRepository
	logger      log.Logger
	now         func() time.Time
	maxAttempts int
}

func NewAccountResolver(repo domain.AccountRepository, logger log.Logger) *AccountResolver {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &AccountResolver{
		repo:        repo,
		logger:      logger,
		now:         time.Now,
		maxAttempts: defaultResolveAttempts,
	}
}

// Resolve returns the account for identity.
//
// Uniqueness violations caused by a concurrent login of the same person are retried, the
// retry then finds the row the other login wrote. A provider link with a different external
// id is never overwritten.
func (r *AccountResolver) Resolve(ctx context.Context, identity domain.CanonicalIdentity) (*domain.Account, error) {
	if !identity.HasEmail() {
		return nil, serrors.MissingEmail(identity.Provider.String())
	}
	if identity.ExternalID == "" {
		return nil, serrors.InvalidIdentity(identity.Provider.String())
	}
	identity.Email = normalizeEmail(identity.Email)

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		account, err := r.resolveOnce(ctx, identity)
		if err == nil {
			return account, nil
		}
		if !isConcurrentWrite(err) {
			return nil, r.translate(ctx, identity, err)
		}

		lastErr = err
		r.logger.Debug(ctx, "Concurrent login detected, retrying account resolution", map[string]interface{}{
			"provider": identity.Provider.String(),
			"attempt":  attempt,
		})
	}

	return nil, serrors.Unavailable(fmt.Errorf("resolve account after %d attempts: %w", r.maxAttempts, lastErr))
}

func (r *AccountResolver) resolveOnce(ctx context.Context, identity domain.CanonicalIdentity) (*domain.Account, error) {
	account, err := r.repo.FindByEmail(ctx, identity.Email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return r.createAccount(ctx, identity)
	}
	if err != nil {
		return nil, fmt.Errorf("find account by email: %w", err)
	}

	link, err := r.repo.FindLink(ctx, account.ID, identity.Provider)
	switch {
	case err == nil:
		if link.ExternalID != identity.ExternalID {
			return nil, serrors.IdentityConflict(identity.Provider.String())
		}
		return account, nil
	case errors.Is(err, domain.ErrLinkNotFound):
	default:
		return nil, fmt.Errorf("find identity link: %w", err)
	}

	newLink := domain.IdentityLink{
		AccountID:  account.ID,
		Provider:   identity.Provider,
		ExternalID: identity.ExternalID,
		CreatedAt:  r.now().UTC(),
	}
	if err := r.repo.AddLink(ctx, newLink); err != nil {
		if errors.Is(err, domain.ErrLinkTaken) && r.linkedConcurrently(ctx, account, identity) {
			return account, nil
		}
		return nil, fmt.Errorf("add identity link: %w", err)
	}

	metrics.LinksAddedTotal.WithLabelValues(identity.Provider.String()).Inc()
	audit.Log(audit.Event{
		Action:    audit.ActionIdentityLinked,
		Subject:   account.Email,
		AccountID: account.ID,
		Provider:  identity.Provider.String(),
		Success:   true,
	})
	r.logger.Info(ctx, "Linked provider identity to existing account", map[string]interface{}{
		"account_id": account.ID,
		"provider":   identity.Provider.String(),
	})
	return account, nil
}

// linkedConcurrently reports whether another login of the same identity attached the link
// between our FindLink and AddLink. Some databases report that race as a taken external id.
func (r *AccountResolver) linkedConcurrently(ctx context.Context, account *domain.Account, identity domain.CanonicalIdentity) bool {
	link, err := r.repo.FindLink(ctx, account.ID, identity.Provider)
	if err != nil {
		return false
	}
	return link.ExternalID == identity.ExternalID
}

func (r *AccountResolver) createAccount(ctx context.Context, identity domain.CanonicalIdentity) (*domain.Account, error) {
	now := r.now().UTC()
	account := &domain.Account{
		ID:          uuid.NewString(),
		Email:       identity.Email,
		DisplayName: domain.DefaultDisplayName,
		Role:        domain.RoleUser,
		CreatedAt:   now,
	}
	link := domain.IdentityLink{
		AccountID:  account.ID,
		Provider:   identity.Provider,
		ExternalID: identity.ExternalID,
		CreatedAt:  now,
	}

	if err := r.repo.CreateWithLink(ctx, account, link); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	metrics.AccountsCreatedTotal.Inc()
	audit.Log(audit.Event{
		Action:    audit.ActionAccountCreated,
		Subject:   account.Email,
		AccountID: account.ID,
		Provider:  identity.Provider.String(),
		Success:   true,
	})
	r.logger.Info(ctx, "Created account on first login", map[string]interface{}{
		"account_id": account.ID,
		"provider":   identity.Provider.String(),
	})
	return account, nil
}

// translate turns a non-retryable failure into the typed error returned to callers.
func (r *AccountResolver) translate(ctx context.Context, identity domain.CanonicalIdentity, err error) error {
	if errors.Is(err, serrors.ErrIdentityConflict) || errors.Is(err, domain.ErrLinkTaken) {
		metrics.IdentityConflictsTotal.WithLabelValues(identity.Provider.String()).Inc()
		audit.Failure(audit.ActionIdentityConflict, identity.Email, identity.Provider.String(), err)
		r.logger.Warn(ctx, "Identity conflict, login rejected", map[string]interface{}{
			"provider": identity.Provider.String(),
		})
		return serrors.IdentityConflict(identity.Provider.String())
	}
	if _, ok := serrors.As(err); ok {
		return err
	}
	r.logger.Error(ctx, "Account resolution failed", err, map[string]interface{}{
		"provider": identity.Provider.String(),
	})
	return serrors.Unavailable(err)
}

func isConcurrentWrite(err error) bool {
	return errors.Is(err, domain.ErrDuplicateAccount) || errors.Is(err, domain.ErrDuplicateLink)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
