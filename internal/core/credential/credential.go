// Package credential owns password hashing and verification. Records are
// serialized as base64(salt) + "$" + iterations + "$" + base64(key) so the
// iteration count can be raised for new records without invalidating old ones.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the number of random salt bytes per record.
	SaltSize = 32
	// DefaultIterations is the PBKDF2 iteration count for new records.
	DefaultIterations = 100000

	keyLen = sha256.Size
)

// Hash derives a credential record for the given password with a fresh
// random salt and the default iteration count. Two calls on the same
// password produce different records.
func Hash(password string) (string, error) {
	return HashWithIterations(password, DefaultIterations)
}

// HashWithIterations is Hash with an explicit iteration count, used when the
// operator tunes the work factor.
func HashWithIterations(password string, iterations int) (string, error) {
	if iterations < 1 {
		return "", fmt.Errorf("invalid iteration count %d", iterations)
	}
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, keyLen, sha256.New)

	return base64.StdEncoding.EncodeToString(salt) +
		"$" + strconv.Itoa(iterations) +
		"$" + base64.StdEncoding.EncodeToString(key), nil
}

// Verify re-derives the key with the stored salt and iteration count and
// compares in constant time. Malformed records verify false; this function
// never fails loudly because a stored record is attacker-influenced input.
func Verify(password, record string) bool {
	parts := strings.Split(record, "$")
	if len(parts) != 3 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations < 1 {
		return false
	}
	stored, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(stored) == 0 {
		return false
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, len(stored), sha256.New)
	return subtle.ConstantTimeCompare(key, stored) == 1
}
