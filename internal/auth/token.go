package auth

import (
	"github.com/google/uuid"

	"github.com/squareit/account-service/internal/domain"
)

// NewTokenValue mints a random session token value.
func NewTokenValue() string {
	return uuid.NewString()
}

// WellFormed reports whether token can be looked up at all: non-empty, not the
// literal "null", and exactly domain.TokenLength characters.
func WellFormed(token string) bool {
	if token == "" || token == "null" {
		return false
	}
	return len(token) == domain.TokenLength
}
