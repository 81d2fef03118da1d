// Package id generates Stripe-style prefixed short identifiers.
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 12
)

// Prefixes for the entity types that carry external identifiers.
const (
	PrefixOrganization = "org"
	PrefixAlert        = "alert"
	PrefixRule         = "rule"
)

// Generate creates a random short ID with the specified length using Base62
// encoding. The generated ID is cryptographically random and URL-safe.
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

// GenerateWithPrefix creates a prefixed ID in the format "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	id, err := Generate(length)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, id), nil
}

// NewOrganizationID generates an organization identifier (org_xxx).
func NewOrganizationID() (string, error) {
	return GenerateWithPrefix(PrefixOrganization, DefaultLength)
}

// NewAlertID generates an alert identifier (alert_xxx).
func NewAlertID() (string, error) {
	return GenerateWithPrefix(PrefixAlert, DefaultLength)
}

// NewRuleID generates a custom rule identifier (rule_xxx).
func NewRuleID() (string, error) {
	return GenerateWithPrefix(PrefixRule, DefaultLength)
}

// HasPrefix reports whether id carries the given entity prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"_")
}
