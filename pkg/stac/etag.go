package stac

import "github.com/google/uuid"

// NewETag returns a fresh opaque version token.
func NewETag() string {
	return uuid.NewString()
}
