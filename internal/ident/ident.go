package ident

import (
	"regexp"

	"github.com/google/uuid"
)

// canonicalUUID matches the hyphenated hex form used on the wire for
// correlation ids and provider transaction tags.
var canonicalUUID = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// New returns a fresh random identifier in canonical form.
func New() string {
	return uuid.NewString()
}

// Valid reports whether s is a canonical hyphenated UUID.
func Valid(s string) bool {
	return canonicalUUID.MatchString(s)
}
