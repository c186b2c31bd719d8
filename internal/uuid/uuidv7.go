// Package uuid generates and checks the string identifiers used as primary keys.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a time-ordered UUIDv7 string. Falls back to a random v4 when
// the v7 generator cannot read entropy.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.NewString()
	}
	return id.String()
}

// Parse returns the canonical lowercase form of s.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid reports whether s is a UUID in its 36-character hyphenated form.
// Braced and urn-prefixed variants accepted by Parse are rejected so that
// path parameters match stored ids byte for byte.
func IsValid(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := googleuuid.Parse(s)
	return err == nil
}
