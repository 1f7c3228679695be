package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryRefreshStore implements RefreshTokenStore using ttlcache. It is meant for
// single-instance deployments and tests.
type MemoryRefreshStore struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, string]
}

// NewMemoryRefreshStore creates a store and starts its expiry loop. Call Close to stop it.
func NewMemoryRefreshStore() *MemoryRefreshStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, string](),
	)

	go cache.Start()

	return &MemoryRefreshStore{
		cache: cache,
	}
}

func (s *MemoryRefreshStore) Save(_ context.Context, subject, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Set(subject, HashToken(token), ttl)
	return nil
}

func (s *MemoryRefreshStore) Get(_ context.Context, subject string) (string, error) {
	item := s.cache.Get(subject)
	if item == nil {
		return "", ErrNotFound
	}
	return item.Value(), nil
}

func (s *MemoryRefreshStore) CompareAndDelete(_ context.Context, subject, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.cache.Get(subject)
	if item == nil || !MatchesHash(item.Value(), token) {
		return false, nil
	}
	s.cache.Delete(subject)
	return true, nil
}

func (s *MemoryRefreshStore) Delete(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(subject)
	return nil
}

// Count returns the number of live entries.
func (s *MemoryRefreshStore) Count() int {
	return s.cache.Len()
}

// Close stops the cleanup goroutine.
func (s *MemoryRefreshStore) Close() error {
	s.cache.Stop()
	return nil
}

var _ RefreshTokenStore = (*MemoryRefreshStore)(nil)
