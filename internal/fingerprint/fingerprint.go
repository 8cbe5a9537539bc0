// Package fingerprint computes short digests of line text for drift detection.
package fingerprint

import (
	"crypto/sha1" //nolint:gosec // equality oracle, not a security boundary
	"encoding/hex"
)

// Size is the number of hex characters kept from the digest.
const Size = 8

// Of returns the first Size hex characters of the SHA-1 digest of text.
func Of(text string) string {
	sum := sha1.Sum([]byte(text)) //nolint:gosec
	return hex.EncodeToString(sum[:])[:Size]
}
