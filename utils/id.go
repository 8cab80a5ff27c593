package utils

import "github.com/google/uuid"

// NewID returns a random (v4) identifier for stored documents.
func NewID() string {
	return uuid.NewString()
}
