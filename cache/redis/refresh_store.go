package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.pilab.hu/shadow-auth/cache"
)

// compareAndDeleteScript deletes KEYS[1] only if it still holds ARGV[1].
var compareAndDeleteScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RefreshStore implements cache.RefreshTokenStore on Redis.
// Each subject owns one key: "<prefix>:refresh:<subject>".
type RefreshStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRefreshStore creates a new [RefreshStore] instance
func NewRefreshStore(client redis.UniversalClient, prefix string) *RefreshStore {
	return &RefreshStore{
		client: client,
		prefix: prefix,
	}
}

func (r *RefreshStore) redisKey(subject string) string {
	if r.prefix == "" {
		return "refresh:" + subject
	}
	return fmt.Sprintf("%s:refresh:%s", r.prefix, subject)
}

// Save issues SET key hash EX ttl, overwriting the previous token.
func (r *RefreshStore) Save(ctx context.Context, subject, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return cache.ErrInvalidTTL
	}
	if err := r.client.Set(ctx, r.redisKey(subject), cache.HashToken(token), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set refresh token in Redis: %w", err)
	}
	return nil
}

func (r *RefreshStore) Get(ctx context.Context, subject string) (string, error) {
	hash, err := r.client.Get(ctx, r.redisKey(subject)).Result()
	if errors.Is(err, redis.Nil) {
		return "", cache.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get refresh token from Redis: %w", err)
	}
	return hash, nil
}

// CompareAndDelete runs the check and the delete as one Lua script, so two rotations
// racing on the same token cannot both win.
func (r *RefreshStore) CompareAndDelete(ctx context.Context, subject, token string) (bool, error) {
	deleted, err := compareAndDeleteScript.Run(ctx, r.client, []string{r.redisKey(subject)}, cache.HashToken(token)).Int()
	if err != nil {
		return false, fmt.Errorf("failed to compare-and-delete refresh token in Redis: %w", err)
	}
	return deleted == 1, nil
}

func (r *RefreshStore) Delete(ctx context.Context, subject string) error {
	if err := r.client.Del(ctx, r.redisKey(subject)).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh token from Redis: %w", err)
	}
	return nil
}

// Ping checks connectivity, used by the health endpoint.
func (r *RefreshStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

var _ cache.RefreshTokenStore = (*RefreshStore)(nil)
