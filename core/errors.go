package core

import "errors"

// Store errors
var (
	ErrUserNotFound             = errors.New("user not found")
	ErrAccountNotFound          = errors.New("account not found")
	ErrStoreUnavailable         = errors.New("store unavailable")
	ErrUnsupportedRecordVersion = errors.New("unsupported record version")
)

// Identity errors
var (
	ErrInvalidIdentity    = errors.New("invalid identity")
	ErrInvalidCookieValue = errors.New("invalid cookie value")
)

// Config errors (server-side configuration)
var (
	ErrStoreProviderRequired = errors.New("store provider is required")
	ErrSecretRequired        = errors.New("secret is required")
	ErrSecretTooShort        = errors.New("secret too short")
)
