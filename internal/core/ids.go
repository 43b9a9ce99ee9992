package core

import "github.com/google/uuid"

// NewID returns a time-ordered unique identifier (UUIDv7: a millisecond
// timestamp followed by random bits).
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
