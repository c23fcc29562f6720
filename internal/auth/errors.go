package auth

import "errors"

// Sentinel errors for token handling.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrSecretEmpty  = errors.New("signing secret is empty")
)
