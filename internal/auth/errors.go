package auth

import "errors"

var (
	// ErrOAuthDisabled is returned when no Discord client is configured
	ErrOAuthDisabled = errors.New("discord login is not configured")
	// ErrRedirectNotAllowed is returned for a redirect_uri outside the allowlist
	ErrRedirectNotAllowed = errors.New("redirect_uri is not allowed")
	// ErrInvalidState is returned for a missing, forged or expired OAuth state
	ErrInvalidState = errors.New("invalid oauth state")
)
