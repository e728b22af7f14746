package content

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize canonicalizes text for fingerprinting: trims surrounding
// whitespace, lowercases, and collapses internal whitespace runs to a single
// space. Identical semantic content with incidental whitespace or differing
// capitalization normalizes to the same string.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Fingerprint computes the deterministic digest used for duplicate detection.
// It is computed over normalized topic and caption text, never over rendered
// pixels: the whole point is to reject a re-generated idea before any
// rendering or publishing cost is spent.
//
// The fingerprint is computed exactly once, at record creation, and never
// recomputed.
func Fingerprint(topic, caption string) string {
	payload := Normalize(topic) + "|" + Normalize(caption)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
