// Package security provides password and marker hashing utilities
package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DeriveMarkerToken produces a short, one-way token from an email address
// using HMAC-SHA256 with the lead-gate secret. The raw address cannot be
// recovered from the stored value.
func DeriveMarkerToken(email, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(email))
	sum := mac.Sum(nil)

	encoded := base64.RawURLEncoding.EncodeToString(sum)
	if len(encoded) > 10 {
		encoded = encoded[:10]
	}
	return encoded
}
