package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the storage-facing packages
var (
	ErrNotFound           = errors.New("not found")                                 // User or account absent
	ErrDuplicate          = errors.New("duplicate value")                           // Unique constraint collision
	ErrDuplicateUsername  = fmt.Errorf("%w: username already exists", ErrDuplicate) // Username taken
	ErrDuplicateEmail     = fmt.Errorf("%w: email already exists", ErrDuplicate)    // Email taken
	ErrValidation         = errors.New("validation failed")                         // Malformed input
	ErrPersistence        = errors.New("persistence failure")                       // Storage-layer error
	ErrInvalidCredentials = errors.New("invalid credentials")                       // Unknown user or wrong password
)

// Persistence wraps a storage error so callers can match ErrPersistence
// while the cause stays reachable through errors.Is/As
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
