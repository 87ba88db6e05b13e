package ap

import (
	"errors"
	"fmt"

	"spotify-ap/proto/spotify"
)

var (
	ErrMACMismatch   = errors.New("received mac mismatch")
	ErrSessionClosed = errors.New("session closed")
	ErrNotHandshaken = errors.New("handshake not completed")
)

// LoginFailedError is returned when the access point rejects the handshake
// or the encrypted login.
type LoginFailedError struct {
	Code        spotify.ErrorCode
	Description string
}

func (e *LoginFailedError) Error() string {
	return fmt.Sprintf("login failed: %s (%s)", e.Description, e.Code)
}

func loginFailed(m *spotify.APLoginFailed) *LoginFailedError {
	code := m.GetErrorCode()
	desc := "Unknown error"
	switch code {
	case spotify.ErrorCode_PremiumAccountRequired:
		desc = "Account needs Spotify Premium"
	case spotify.ErrorCode_BadCredentials:
		desc = "Bad credentials"
	default:
		if d := m.GetErrorDescription(); d != "" {
			desc = d
		}
	}
	return &LoginFailedError{Code: code, Description: desc}
}

// AudioKeyError carries the two byte code of an audio key error frame.
type AudioKeyError struct {
	Code uint16
}

func (e *AudioKeyError) Error() string {
	return fmt.Sprintf("audio key error: code 0x%04x", e.Code)
}

// MercuryStatusError is returned for mercury responses with a status of 400
// or above.
type MercuryStatusError struct {
	URI        string
	StatusCode int32
}

func (e *MercuryStatusError) Error() string {
	return fmt.Sprintf("mercury %s: status %d", e.URI, e.StatusCode)
}
