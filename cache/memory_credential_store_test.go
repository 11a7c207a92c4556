package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MemoryCredentialStore {
	t.Helper()
	store := NewMemoryCredentialStore()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeKey("  Ada@Example.COM "))
	assert.Equal(t, "ada@example.com", NormalizeKey("ada@example.com"))
}

func TestMemoryStore_IssueThenVerify(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Issue(ctx, "ada@example.com", "hash-1", 5*time.Minute))

	result, err := store.Verify(ctx, "ada@example.com", "hash-1")
	require.NoError(t, err)
	assert.Equal(t, VerifyOK, result)
}

// Normalization happens at the store boundary: issuance and verification
// with differently-cased keys address the same record.
func TestMemoryStore_KeyNormalization(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Issue(ctx, " Ada@Example.COM ", "hash-1", 5*time.Minute))

	result, err := store.Verify(ctx, "ada@example.com", "hash-1")
	require.NoError(t, err)
	assert.Equal(t, VerifyOK, result)
}

func TestMemoryStore_OKIsSingleUse(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Issue(ctx, "ada@example.com", "hash-1", 5*time.Minute))

	first, err := store.Verify(ctx, "ada@example.com", "hash-1")
	require.NoError(t, err)
	assert.Equal(t, VerifyOK, first)

	second, err := store.Verify(ctx, "ada@example.com", "hash-1")
	require.NoError(t, err)
	assert.Equal(t, VerifyNotFound, second)
}

func TestMemoryStore_MismatchLeavesRecordIntact(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Issue(ctx, "ada@example.com", "hash-1", 5*time.Minute))

	result, err := store.Verify(ctx, "ada@example.com", "wrong-hash")
	require.NoError(t, err)
	assert.Equal(t, VerifyMismatch, result)

	// Retry with the right code still succeeds within the window.
	result, err = store.Verify(ctx, "ada@example.com", "hash-1")
	require.NoError(t, err)
	assert.Equal(t, VerifyOK, result)
}

func TestMemoryStore_ReissueReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Issue(ctx, "ada@example.com", "hash-old", 5*time.Minute))
	require.NoError(t, store.Issue(ctx, "ada@example.com", "hash-new", 5*time.Minute))

	result, err := store.Verify(ctx, "ada@example.com", "hash-old")
	require.NoError(t, err)
	assert.Equal(t, VerifyMismatch, result, "old code no longer matches")

	result, err = store.Verify(ctx, "ada@example.com", "hash-new")
	require.NoError(t, err)
	assert.Equal(t, VerifyOK, result)
}

func TestMemoryStore_ExpiredThenGone(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }
	require.NoError(t, store.Issue(ctx, "ada@example.com", "hash-1", 5*time.Minute))

	// Advance the clock past the validity window.
	store.now = func() time.Time { return base.Add(6 * time.Minute) }

	result, err := store.Verify(ctx, "ada@example.com", "hash-1")
	require.NoError(t, err)
	assert.Equal(t, VerifyExpired, result, "first lookup observes the expiry")

	result, err = store.Verify(ctx, "ada@example.com", "hash-1")
	require.NoError(t, err)
	assert.Equal(t, VerifyNotFound, result, "expired record was deleted on observation")
}

func TestMemoryStore_SweepRemovesOnlyExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }
	require.NoError(t, store.Issue(ctx, "stale@example.com", "hash-stale", 1*time.Minute))
	require.NoError(t, store.Issue(ctx, "fresh@example.com", "hash-fresh", 10*time.Minute))

	store.now = func() time.Time { return base.Add(5 * time.Minute) }

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	result, err := store.Verify(ctx, "stale@example.com", "hash-stale")
	require.NoError(t, err)
	assert.Equal(t, VerifyNotFound, result)

	result, err = store.Verify(ctx, "fresh@example.com", "hash-fresh")
	require.NoError(t, err)
	assert.Equal(t, VerifyOK, result)
}

// Two concurrent verifications of the same key must not both succeed: the
// code is single-use and the check-and-delete is atomic per key.
func TestMemoryStore_ConcurrentVerifySingleWinner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Issue(ctx, "ada@example.com", "hash-1", 5*time.Minute))

	const attempts = 32
	results := make([]VerifyResult, attempts)

	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(slot int) {
			defer wg.Done()
			result, err := store.Verify(ctx, "ada@example.com", "hash-1")
			assert.NoError(t, err)
			results[slot] = result
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, result := range results {
		switch result {
		case VerifyOK:
			winners++
		case VerifyNotFound:
			// lost the race after the record was consumed
		default:
			t.Fatalf("unexpected result %v", result)
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent verify may observe OK")
}

// A reissue arriving while a Verify is mid-flight for the same key must not
// slip between Verify's lookup and its consume step: the fresh record would
// be the one deleted, destroying a code the user just requested. The clock
// hook stalls Verify inside its critical section while Issue is attempted.
func TestMemoryStore_ReissueDuringVerifyWaits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Issue(ctx, "ada@example.com", "hash-old", 5*time.Minute))

	inVerify := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.now = func() time.Time {
		once.Do(func() {
			close(inVerify)
			<-release
		})
		return time.Now()
	}

	verified := make(chan VerifyResult, 1)
	go func() {
		result, err := store.Verify(ctx, "ada@example.com", "hash-old")
		assert.NoError(t, err)
		verified <- result
	}()
	<-inVerify

	issued := make(chan error, 1)
	go func() {
		issued <- store.Issue(ctx, "ada@example.com", "hash-new", 5*time.Minute)
	}()

	select {
	case <-issued:
		t.Fatal("Issue completed while Verify held the record")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	assert.Equal(t, VerifyOK, <-verified, "in-flight verify consumes the old record")
	require.NoError(t, <-issued)

	result, err := store.Verify(ctx, "ada@example.com", "hash-new")
	require.NoError(t, err)
	assert.Equal(t, VerifyOK, result, "the reissued code survives the race")
}

func TestMemoryStore_Count(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.Equal(t, 0, store.Count(ctx))
	require.NoError(t, store.Issue(ctx, "a@example.com", "h1", time.Minute))
	require.NoError(t, store.Issue(ctx, "b@example.com", "h2", time.Minute))
	require.NoError(t, store.Issue(ctx, "a@example.com", "h3", time.Minute))
	assert.Equal(t, 2, store.Count(ctx), "reissue replaces, it does not add")
}
