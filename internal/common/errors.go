// Package common defines shared constants and sentinel errors used across
// the layers of the admin API. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Login errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("rate limited")

	// Token lifecycle errors.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrInactiveUser        = errors.New("invalid or inactive user")
	ErrInvalidToken        = errors.New("invalid token")
)
