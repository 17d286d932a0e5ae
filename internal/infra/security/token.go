package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// OpaqueTokenBytes is the entropy behind session and refresh tokens.
// 32 bytes hex-encodes to a 64 character string.
const OpaqueTokenBytes = 32

// GenerateOpaqueToken returns a hex-encoded random string using the
// specified number of random bytes.
func GenerateOpaqueToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
