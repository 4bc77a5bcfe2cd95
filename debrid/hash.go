package debrid

import (
	"encoding/hex"
	"strings"
)

// NormalizeHash lowercases and trims an info hash. Some sources hand out a
// double hex encoded form (80 hex chars whose decoded bytes are themselves a
// 40-hex string); those are decoded back to the plain form. Anything else is
// returned as-is, already normalized hashes pass through unchanged.
func NormalizeHash(hash string) string {
	clean := strings.ToLower(strings.TrimSpace(hash))
	if len(clean) != 80 || !isHex(clean) {
		return clean
	}
	decoded, err := hex.DecodeString(clean)
	if err != nil {
		return clean
	}
	inner := string(decoded)
	if len(inner) == 40 && isHex(inner) {
		return inner
	}
	return clean
}

func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
