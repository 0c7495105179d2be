// Package security hashes and checks the admin API token.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashToken returns a bcrypt hash suitable for server.admin_token_hash.
func HashToken(tok string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(tok), bcrypt.DefaultCost)
	return string(b), err
}

// CheckToken reports whether tok matches hash. An empty hash never matches.
func CheckToken(hash, tok string) bool {
	if strings.TrimSpace(hash) == "" || tok == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(tok)) == nil
}

// NewToken returns n random bytes, base64url encoded.
func NewToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
