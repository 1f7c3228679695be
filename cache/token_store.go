package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("refresh token not found")
	ErrInvalidTTL = errors.New("refresh token ttl must be positive")
)

// RefreshTokenStore keeps the single active refresh token of each subject.
// Implementations store HashToken(token), never the token itself.
//
//go:generate mockgen -source=$GOFILE -destination=mock/mock_$GOFILE -package=mock_$GOPACKAGE
type RefreshTokenStore interface {
	// Save replaces whatever the subject had with token, expiring after ttl.
	Save(ctx context.Context, subject, token string, ttl time.Duration) error

	// Get returns the stored hash for subject, or ErrNotFound.
	Get(ctx context.Context, subject string) (string, error)

	// CompareAndDelete deletes the subject's entry only when it holds token.
	// It reports whether the entry was deleted. Concurrent callers presenting the
	// same token see at most one true.
	CompareAndDelete(ctx context.Context, subject, token string) (bool, error)

	// Delete removes the subject's entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, subject string) error
}
