package cache

import (
	"context"
	"strings"
	"time"
)

// VerifyResult is the closed set of outcomes of a verification attempt.
// All four are expected outcomes, not errors; callers must branch on each
// because the corrective action shown to the user differs.
type VerifyResult int

const (
	// VerifyNotFound: no pending code exists for the key.
	VerifyNotFound VerifyResult = iota
	// VerifyExpired: a code existed but its validity window passed; the
	// record was deleted as a side effect of the lookup.
	VerifyExpired
	// VerifyMismatch: a live code exists but the submitted one differs; the
	// record survives so the user can retry within the window.
	VerifyMismatch
	// VerifyOK: codes matched in time; the record was consumed.
	VerifyOK
)

func (r VerifyResult) String() string {
	switch r {
	case VerifyNotFound:
		return "NOT_FOUND"
	case VerifyExpired:
		return "EXPIRED"
	case VerifyMismatch:
		return "MISMATCH"
	case VerifyOK:
		return "OK"
	}
	return "UNKNOWN"
}

// CredentialEntry is one pending one-time code. Codes are stored as digests
// (see authcore.HashCode); the plaintext never rests in a store.
type CredentialEntry struct {
	Key       string    // normalized identity key
	CodeHash  string    // digest of the issued code
	ExpiresAt time.Time // logical validity boundary
	IssuedAt  time.Time
}

// CredentialStore holds pending one-time codes, at most one per identity
// key. Implementations must make Verify's check-and-delete atomic per key:
// two concurrent Verify calls for the same key must not both observe
// VerifyOK.
//
//go:generate mockgen -source=$GOFILE -destination=../mocks/mock_$GOPACKAGE/mock_$GOFILE -package=mock_$GOPACKAGE
type CredentialStore interface {
	// Issue records codeHash for key with the given validity window,
	// unconditionally replacing any pending record for that key.
	Issue(ctx context.Context, key, codeHash string, ttl time.Duration) error
	// Verify checks submittedHash against the pending record for key and
	// consumes the record on VerifyOK; see VerifyResult for side effects.
	Verify(ctx context.Context, key, submittedHash string) (VerifyResult, error)
	// Sweep deletes every record whose validity window has passed and
	// returns how many were removed. It bounds growth from abandoned
	// issuances; Verify does not depend on it for correctness.
	Sweep(ctx context.Context) (int, error)
	// Count reports the number of pending records, expired or not.
	Count(ctx context.Context) int
	Close() error
}

// NormalizeKey canonicalizes an identity key. It is applied by every store
// operation, so callers may pass raw user input; this is the single place
// normalization happens.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
