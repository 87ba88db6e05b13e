// Package credentials holds the secrets a login starts from, and decodes the
// encrypted credential blobs handed out by device discovery.
package credentials

import (
	"errors"

	"spotify-ap/proto/spotify"
)

var ErrInvalid = errors.New("credentials need a username and exactly one of password or stored credential")

// Credentials are either a username and password or a username and a
// reusable stored credential from an earlier login.
type Credentials struct {
	Username         string
	Password         string
	StoredCredential []byte
	// StoredType is the access point authentication type of
	// StoredCredential. Zero means stored Spotify credentials.
	StoredType spotify.AuthenticationType
}

func UserPass(username, password string) Credentials {
	return Credentials{Username: username, Password: password}
}

func Stored(username string, credential []byte) Credentials {
	return Credentials{Username: username, StoredCredential: credential}
}

func (c Credentials) Validate() error {
	if c.Username == "" || (c.Password == "") == (c.StoredCredential == nil) {
		return ErrInvalid
	}
	return nil
}

// HasPassword reports whether these are interactive credentials.
func (c Credentials) HasPassword() bool {
	return c.Password != ""
}

// LoginCredentials converts to the access point login message.
func (c Credentials) LoginCredentials() *spotify.LoginCredentials {
	if c.HasPassword() {
		return &spotify.LoginCredentials{
			Username: c.Username,
			Typ:      spotify.AuthenticationType_AUTHENTICATION_USER_PASS,
			AuthData: []byte(c.Password),
		}
	}
	typ := c.StoredType
	if typ == spotify.AuthenticationType_AUTHENTICATION_USER_PASS {
		typ = spotify.AuthenticationType_AUTHENTICATION_STORED_SPOTIFY_CREDENTIALS
	}
	return &spotify.LoginCredentials{
		Username: c.Username,
		Typ:      typ,
		AuthData: c.StoredCredential,
	}
}
