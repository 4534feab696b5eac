// Package credentials covers password hashing and random credential/token
// generation. It is pure: no storage, no I/O beyond crypto/rand.
package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2-HMAC-SHA256 parameters for stored passwords.
	hashIterations = 100_000
	saltBytes      = 16
	keyBytes       = 32

	// TokenBytes is the entropy behind a bearer token.
	TokenBytes = 32
)

// HashPassword derives a key from the plaintext and a fresh random salt.
// Both are returned hex-encoded for storage.
func HashPassword(plain string) (hash, salt string, err error) {
	rawSalt := make([]byte, saltBytes)
	if _, err := rand.Read(rawSalt); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(plain), rawSalt, hashIterations, keyBytes, sha256.New)
	return hex.EncodeToString(key), hex.EncodeToString(rawSalt), nil
}

// CheckPassword re-derives the key with the stored salt and compares in
// constant time.
func CheckPassword(plain, storedHash, storedSalt string) bool {
	rawSalt, err := hex.DecodeString(storedSalt)
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	key := pbkdf2.Key([]byte(plain), rawSalt, hashIterations, keyBytes, sha256.New)
	return subtle.ConstantTimeCompare(key, expected) == 1
}

// GenerateLogin returns a random lowercase hex login, 8 characters by default.
func GenerateLogin() string {
	raw := make([]byte, 4)
	mustRead(raw)
	return hex.EncodeToString(raw)
}

// GeneratePassword returns a random URL-safe password with 8 bytes of entropy.
func GeneratePassword() string {
	raw := make([]byte, 8)
	mustRead(raw)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// GenerateToken returns a URL-safe bearer token with TokenBytes of entropy.
func GenerateToken() string {
	raw := make([]byte, TokenBytes)
	mustRead(raw)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func mustRead(buf []byte) {
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process cannot do anything useful.
		panic("credentials: crypto/rand unavailable: " + err.Error())
	}
}
