package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	// DNS-label safe alphabet: lowercase letters and digits
	lowerAlnum = "abcdefghijklmnopqrstuvwxyz0123456789"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 12
)

// Generate creates a cryptographically random Base62 string.
func Generate(length int) (string, error) {
	return generateFrom(base62, length)
}

// GenerateLower creates a random string of lowercase letters and digits,
// safe to embed in a DNS label.
func GenerateLower(length int) (string, error) {
	return generateFrom(lowerAlnum, length)
}

// Pick returns a uniformly random element of words.
func Pick(words []string) (string, error) {
	if len(words) == 0 {
		return "", fmt.Errorf("cannot pick from empty word list")
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return words[n.Int64()], nil
}

func generateFrom(alphabet string, length int) (string, error) {
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
