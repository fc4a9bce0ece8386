package services

import (
	"errors"
	"fmt"
	"math"
)

// Error categories the controllers map to HTTP status codes
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrPersistence = errors.New("persistence failure")
)

// NotFoundError wraps a message as a not-found error
func NotFoundError(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, v...))
}

// ValidationError wraps a message as a validation error
func ValidationError(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, v...))
}

// ConflictError wraps a message as a conflict error
func ConflictError(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, v...))
}

// PersistenceError wraps a database failure
func PersistenceError(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPersistence, fmt.Sprintf(format, v...))
}

// round2 rounds a money amount to cents
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
