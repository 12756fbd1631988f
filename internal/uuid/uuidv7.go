// Package uuid wraps google/uuid to produce time-ordered identifiers.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string. Version 7 embeds a millisecond timestamp so
// IDs sort roughly by creation time, which keeps primary key indexes compact.
// Falls back to a random v4 when the v7 generator fails.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.NewString()
	}
	return id.String()
}
