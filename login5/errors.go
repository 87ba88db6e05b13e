package login5

import (
	"errors"
	"fmt"

	"spotify-ap/proto/spotify"
)

var (
	ErrMultipleChallenges = errors.New("multiple challenges received")
	ErrNotLoggedIn        = errors.New("cannot refresh token if not logged in")
)

// LoginError is a rejection reported by the login endpoint.
type LoginError struct {
	Code spotify.LoginError
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login5: %s", e.Description())
}

func (e *LoginError) Description() string {
	switch e.Code {
	case spotify.LoginError_INVALID_CREDENTIALS:
		return "Invalid credentials"
	case spotify.LoginError_BAD_REQUEST:
		return "Bad request"
	case spotify.LoginError_UNSUPPORTED_LOGIN:
		return "Unsupported login protocol"
	case spotify.LoginError_TIMEOUT:
		return "Timeout"
	case spotify.LoginError_UNKNOWN_IDENTIFIER:
		return "Unknown identifier"
	case spotify.LoginError_TOO_MANY_ATTEMPTS:
		return "Too many attempts"
	case spotify.LoginError_INVALID_PHONENUMBER:
		return "Invalid phone number"
	case spotify.LoginError_TRY_AGAIN_LATER:
		return "Try again later"
	default:
		return "Unknown error"
	}
}

// Retryable reports whether the same request may succeed later.
func (e *LoginError) Retryable() bool {
	return e.Code == spotify.LoginError_TIMEOUT || e.Code == spotify.LoginError_TRY_AGAIN_LATER
}
