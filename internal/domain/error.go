package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Verification code errors
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrInvalidDate     = errors.New("invalid date of birth")
	ErrPersistence     = errors.New("persistence failure")
)
