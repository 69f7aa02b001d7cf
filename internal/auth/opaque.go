package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const opaqueTokenBytes = 32

// GenerateOpaqueToken returns 256 bits of randomness, hex encoded.
func GenerateOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
