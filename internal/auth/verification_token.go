package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const verificationTokenBytes = 32

// VerificationToken is a freshly issued email verification secret.
// Raw is handed to the user once; only Hash is persisted.
type VerificationToken struct {
	Raw       string
	Hash      string
	ExpiresAt time.Time
}

// HashVerificationToken returns the hex SHA-256 of a raw token.
func HashVerificationToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewVerificationToken draws a random token that expires ttl after now.
func NewVerificationToken(now time.Time, ttl time.Duration) (VerificationToken, error) {
	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return VerificationToken{}, fmt.Errorf("read random: %w", err)
	}
	raw := hex.EncodeToString(buf)
	return VerificationToken{
		Raw:       raw,
		Hash:      HashVerificationToken(raw),
		ExpiresAt: now.Add(ttl),
	}, nil
}
