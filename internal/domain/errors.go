package domain

import "errors"

var (
	// Account and token errors
	ErrNoActiveAccount     = errors.New("no active account: verify a user has been signed in and an account has been set active")
	ErrInteractionRequired = errors.New("interactive authentication required")
	ErrMissingAuthCode     = errors.New("missing authorization code")
	ErrLoginFailed         = errors.New("login failed")

	// Graph errors
	ErrGraphRequest = errors.New("graph request failed")
	ErrGraphStatus  = errors.New("graph returned non-OK status")
	ErrGraphDecode  = errors.New("graph response could not be decoded")

	// State token errors
	ErrInvalidState         = errors.New("invalid state token")
	ErrExpiredState         = errors.New("expired state token")
	ErrMalformedState       = errors.New("malformed state token")
	ErrStateSessionMismatch = errors.New("state token was issued to another session")

	// Session errors
	ErrInvalidSessionCookie = errors.New("invalid session cookie")
	ErrExpiredSessionCookie = errors.New("expired session cookie")
	ErrSessionNotFound      = errors.New("session not found")
	ErrPhotoNotFound        = errors.New("photo not found")

	// Config errors
	ErrMissingConfig = errors.New("missing required configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)
