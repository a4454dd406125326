package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the length of every entity id
	DefaultLength = 16

	MinLength = 8
	MaxLength = 64
)

var shapePattern = regexp.MustCompile(`^[A-Za-z0-9]{8,64}$`)

// Generate creates a random short ID with the specified length using Base62 encoding.
// The generated ID is cryptographically random and URL-safe.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}

	return string(result), nil
}

// MustGenerate creates a random short ID and panics on error.
func MustGenerate(length int) string {
	id, err := Generate(length)
	if err != nil {
		panic(err)
	}
	return id
}

// New returns a DefaultLength id.
func New() string {
	return MustGenerate(DefaultLength)
}

// IsValid reports whether s has the shape of an id: alphanumeric, 8 to 64 chars.
// Ids pulled out of email headers and subjects are checked with this before any lookup.
func IsValid(s string) bool {
	return shapePattern.MatchString(s)
}
