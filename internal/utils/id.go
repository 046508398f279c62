package utils

import "github.com/google/uuid"

// NewID returns a random UUIDv4 string. All board, column, project and
// task rows use this as their primary key so one id scheme serves
// every entity.
func NewID() string {
	return uuid.NewString()
}
