// Package common defines shared constants and sentinel errors used across
// client and server layers of gopfolio. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Login guard outcomes.
	ErrNotAuthorized      = errors.New("not authorized")
	ErrAccountLocked      = errors.New("account locked")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Allocation outcomes.
	ErrImbalancedAllocation = errors.New("imbalanced allocation")
	ErrInvalidSelection     = errors.New("invalid selection")

	// ErrPersistence marks a storage failure that rolled back the whole unit of work.
	ErrPersistence = errors.New("persistence failure")

	// Validation errors for inbound requests.
	ErrorValidation  = errors.New("validation error")
	ErrorInvalidKind = errors.New("invalid kind")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
