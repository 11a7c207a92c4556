package authcore

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashCode digests a one-time code before it is stored or compared, so the
// plaintext never rests in a credential store. Comparison by digest
// preserves exact-value semantics.
func HashCode(code string) string {
	hasher := sha256.New()
	hasher.Write([]byte(code))
	hashedBytes := hasher.Sum(nil)
	return hex.EncodeToString(hashedBytes)
}
