// Package idgen generates dataset identifiers: a short type prefix followed by
// a random URL-safe suffix from nanoid.
package idgen

import (
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// DatasetPrefix is prepended to every dataset ID.
const DatasetPrefix = "ds-"

// Alphabet defines the character set used for the random portion of the ID.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
const Length = 12

// NewDatasetID returns a fresh dataset ID.
func NewDatasetID() (string, error) {
	return GenerateWithPrefix(DatasetPrefix)
}

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// IsDatasetID reports whether s has the shape of an ID from NewDatasetID.
func IsDatasetID(s string) bool {
	suffix, ok := strings.CutPrefix(s, DatasetPrefix)
	if !ok || len(suffix) != Length {
		return false
	}
	for _, r := range suffix {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}
