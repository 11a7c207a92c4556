package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vetrina-app/authcore/cache"
)

// retentionGrace mirrors the in-memory store: keys live past their logical
// expiry so Verify can still report EXPIRED instead of NOT_FOUND. Redis key
// expiry is only the backstop for abandoned records.
const retentionGrace = 30 * time.Minute

// verifyScript performs the check-and-delete atomically on the server, so
// two concurrent Verify calls for the same key cannot both win. Return
// values match cache.VerifyResult ordinals.
var verifyScript = redis.NewScript(`
local hash = redis.call('HGET', KEYS[1], 'codeHash')
if not hash then
	return 0
end
local expires = tonumber(redis.call('HGET', KEYS[1], 'expiresAt'))
if expires < tonumber(ARGV[2]) then
	redis.call('DEL', KEYS[1])
	return 1
end
if hash ~= ARGV[1] then
	return 2
end
redis.call('DEL', KEYS[1])
return 3
`)

// CredentialStore implements cache.CredentialStore on Redis, for
// deployments running more than one instance of the service.
type CredentialStore struct {
	client *redis.Client
	prefix string
}

// NewCredentialStore creates a Redis-backed credential store. The client's
// lifecycle is owned by the caller.
func NewCredentialStore(client *redis.Client, prefix string) *CredentialStore {
	return &CredentialStore{
		client: client,
		prefix: prefix,
	}
}

func (s *CredentialStore) redisKey(key string) string {
	return fmt.Sprintf("%s:otp:%s", s.prefix, cache.NormalizeKey(key))
}

// Issue implements cache.CredentialStore.Issue.
func (s *CredentialStore) Issue(ctx context.Context, key, codeHash string, ttl time.Duration) error {
	rkey := s.redisKey(key)
	now := time.Now()

	pipe := s.client.TxPipeline()
	// HSet on an existing key leaves stale fields behind, so clear first:
	// replace-on-reissue means the old record vanishes entirely.
	pipe.Del(ctx, rkey)
	pipe.HSet(ctx, rkey, map[string]interface{}{
		"codeHash":  codeHash,
		"expiresAt": now.Add(ttl).Unix(),
		"issuedAt":  now.Unix(),
	})
	pipe.Expire(ctx, rkey, ttl+retentionGrace)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to issue credential in redis: %w", err)
	}
	return nil
}

// Verify implements cache.CredentialStore.Verify.
func (s *CredentialStore) Verify(ctx context.Context, key, submittedHash string) (cache.VerifyResult, error) {
	res, err := verifyScript.Run(ctx, s.client,
		[]string{s.redisKey(key)},
		submittedHash, time.Now().Unix(),
	).Int()
	if err != nil {
		return cache.VerifyNotFound, fmt.Errorf("credential verify script failed: %w", err)
	}

	switch res {
	case 1:
		return cache.VerifyExpired, nil
	case 2:
		return cache.VerifyMismatch, nil
	case 3:
		return cache.VerifyOK, nil
	default:
		return cache.VerifyNotFound, nil
	}
}

// Sweep implements cache.CredentialStore.Sweep.
func (s *CredentialStore) Sweep(ctx context.Context) (int, error) {
	pattern := fmt.Sprintf("%s:otp:*", s.prefix)
	now := time.Now().Unix()
	removed := 0

	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		rkey := iter.Val()
		expires, err := s.client.HGet(ctx, rkey, "expiresAt").Int64()
		if err != nil {
			continue // key vanished between scan and read
		}
		if expires < now {
			if s.client.Del(ctx, rkey).Val() > 0 {
				removed++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("credential sweep scan failed: %w", err)
	}
	return removed, nil
}

// Count implements cache.CredentialStore.Count.
func (s *CredentialStore) Count(ctx context.Context) int {
	pattern := fmt.Sprintf("%s:otp:*", s.prefix)
	count := 0

	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}

// Close is a no-op; the Redis client is shared and closed by its owner.
func (s *CredentialStore) Close() error {
	return nil
}

var _ cache.CredentialStore = (*CredentialStore)(nil)
