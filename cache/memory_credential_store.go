package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// retentionGrace is how long an entry outlives its logical expiry inside the
// backing cache. Verify must be able to observe an expired record (to report
// VerifyExpired rather than VerifyNotFound), so ttlcache eviction runs
// behind the logical clock and acts only as a GC backstop for records
// nothing ever looks at again.
const retentionGrace = 30 * time.Minute

// MemoryCredentialStore implements CredentialStore on ttlcache. Suitable for
// a single-instance deployment; use the redis store when running more than
// one replica.
type MemoryCredentialStore struct {
	cache *ttlcache.Cache[string, *CredentialEntry]

	// mu serializes every mutation of a key's record. ttlcache operations
	// are individually thread-safe, but Verify's read followed by a
	// conditional delete is not, and VerifyOK must be single-winner; Issue
	// and Sweep take the same lock so a reissue cannot land inside Verify's
	// window and be consumed as the old record.
	mu sync.Mutex

	now func() time.Time
}

// NewMemoryCredentialStore creates an in-memory credential store with
// automatic cleanup of long-abandoned entries.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *CredentialEntry](retentionGrace),
		ttlcache.WithDisableTouchOnHit[string, *CredentialEntry](),
	)

	go cache.Start()

	return &MemoryCredentialStore{
		cache: cache,
		now:   time.Now,
	}
}

// Issue implements CredentialStore.Issue.
func (s *MemoryCredentialStore) Issue(_ context.Context, key, codeHash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := &CredentialEntry{
		Key:       NormalizeKey(key),
		CodeHash:  codeHash,
		ExpiresAt: now.Add(ttl),
		IssuedAt:  now,
	}
	// Set overwrites, which is exactly the replace-on-reissue semantics:
	// one live record per key, no merge.
	s.cache.Set(entry.Key, entry, ttl+retentionGrace)
	return nil
}

// Verify implements CredentialStore.Verify.
func (s *MemoryCredentialStore) Verify(_ context.Context, key, submittedHash string) (VerifyResult, error) {
	normalized := NormalizeKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.cache.Get(normalized)
	if item == nil {
		return VerifyNotFound, nil
	}

	entry := item.Value()
	if s.now().After(entry.ExpiresAt) {
		s.cache.Delete(normalized)
		return VerifyExpired, nil
	}
	if entry.CodeHash != submittedHash {
		return VerifyMismatch, nil
	}

	// One-time use: consume before reporting success.
	s.cache.Delete(normalized)
	return VerifyOK, nil
}

// Sweep implements CredentialStore.Sweep.
func (s *MemoryCredentialStore) Sweep(_ context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for key, item := range s.cache.Items() {
		if now.After(item.Value().ExpiresAt) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		s.cache.Delete(key)
	}

	return len(expired), nil
}

// Count implements CredentialStore.Count.
func (s *MemoryCredentialStore) Count(_ context.Context) int {
	return s.cache.Len()
}

// Close stops the backstop cleanup goroutine.
func (s *MemoryCredentialStore) Close() error {
	s.cache.Stop()

	return nil
}
