package model

import "github.com/google/uuid"

// ID identifies either a user or a match; which one is determined by the
// field it sits in. The textual form is the canonical lowercase hyphenated
// UUID, which is what goes on the wire and into the database.
type ID = uuid.UUID

// NilID is the zero ID.
var NilID ID

// NewID returns a fresh random ID.
func NewID() ID {
	return uuid.New()
}

// ParseID parses the canonical textual form.
func ParseID(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParseID parses s or panics. Test helper.
func MustParseID(s string) ID {
	return uuid.MustParse(s)
}
