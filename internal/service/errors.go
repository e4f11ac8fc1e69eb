package service

import "errors"

// Sentinel errors returned by service operations. The API layer maps these
// to HTTP statuses; everything else is an internal failure.
var (
	// ErrUnauthorized is returned when the caller's identity is missing or
	// does not hold the required role.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when an invite token, family, list or item
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when a required field is missing or a
	// supplied value cannot be used.
	ErrValidation = errors.New("validation failed")
)
