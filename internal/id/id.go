// Package id provides unique identifier generation.
package id

import "github.com/google/uuid"

// New generates a UUID v4 string for endpoint and asset identifiers.
func New() string {
	return uuid.NewString()
}
