package licensing

import (
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// KeyPrefix makes license keys recognizable at a glance
const KeyPrefix = "KYGT"

// GenerateLicenseKey creates a unique license key with checksum.
// Format: KYGT-XXXX-XXXX-XXXX-XXXX-CC (where CC is checksum).
// Uniqueness comes from a random UUID, so collisions are negligible.
func GenerateLicenseKey() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate key material: %w", err)
	}

	// Base32 keeps the key alphanumeric and case-insensitive friendly
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(id[:])

	parts := []string{KeyPrefix}
	for i := 0; i+4 <= len(encoded) && len(parts) < 5; i += 4 {
		parts = append(parts, encoded[i:i+4])
	}

	keyWithoutChecksum := strings.Join(parts, "-")
	return fmt.Sprintf("%s-%s", keyWithoutChecksum, keyChecksum(keyWithoutChecksum)), nil
}

// keyChecksum computes a 2-character checksum used to catch typos before
// hitting the store
func keyChecksum(keyWithoutChecksum string) string {
	h := sha256.Sum256([]byte(keyWithoutChecksum))
	return fmt.Sprintf("%02X", h[0])
}

// WellFormedKey checks prefix and checksum of a license key. The seed demo
// key and operator-issued legacy keys without checksum are accepted as-is.
func WellFormedKey(key string) bool {
	if key == "" {
		return false
	}
	parts := strings.Split(key, "-")
	if parts[0] != KeyPrefix {
		// Keys issued outside the generator (e.g. legacy imports) are
		// resolved against the store rather than rejected up front.
		return true
	}
	if len(parts) != 6 {
		return len(parts) == 5 // legacy format without checksum
	}
	expected := keyChecksum(strings.Join(parts[:5], "-"))
	return strings.EqualFold(parts[5], expected)
}
