// Package security implements salted password hashing and verification for
// locally stored credentials.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	iterations = 120_000
	keyLength  = 32
)

// GenerateSalt returns a fresh random salt, hex-encoded for storage.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return hex.EncodeToString(salt), nil
}

// HashPassword derives a PBKDF2-SHA256 hash of the password under the given
// hex-encoded salt.
func HashPassword(password, salt string) (string, error) {
	rawSalt, err := hex.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("decoding salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), rawSalt, iterations, keyLength, sha256.New)
	return hex.EncodeToString(key), nil
}

// VerifyPassword recomputes the salted hash of the candidate password and
// compares it to the stored hash in constant time.
func VerifyPassword(password, salt, storedHash string) bool {
	candidate, err := HashPassword(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(storedHash)) == 1
}

// temporary passwords avoid look-alike characters so they survive being read
// off a screen
const tempPasswordAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateTemporaryPassword returns a random password for the reset flow.
// Only its salted hash is ever persisted.
func GenerateTemporaryPassword(length int) (string, error) {
	if length <= 0 {
		length = 12
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating temporary password: %w", err)
	}
	for i, b := range buf {
		buf[i] = tempPasswordAlphabet[int(b)%len(tempPasswordAlphabet)]
	}
	return string(buf), nil
}
