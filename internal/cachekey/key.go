package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// BuildKey composes a cache key that embeds the canonical type name,
// a trimmed fingerprint derived from fingerprintSource, and an
// optional version tag, so a version change invalidates prior
// entries. A blank fingerprint source yields the empty key, never a
// partial one.
func BuildKey(canonicalTypeName, fingerprintSource, versionTag string) string {
	trimmed := strings.TrimSpace(fingerprintSource)
	if trimmed == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(trimmed))
	fingerprint := hex.EncodeToString(sum[:])

	var b strings.Builder
	b.WriteString(canonicalTypeName)
	b.WriteByte(':')
	b.WriteString(fingerprint)
	if versionTag != "" {
		b.WriteByte(':')
		b.WriteString(versionTag)
	}
	return b.String()
}
