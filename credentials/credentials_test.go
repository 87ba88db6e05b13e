package credentials

import (
	"bytes"
	"crypto/aes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotify-ap/proto/spotify"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, UserPass("alice", "pw").Validate())
	assert.NoError(t, Stored("alice", []byte("blob")).Validate())
	assert.ErrorIs(t, Credentials{Username: "alice"}.Validate(), ErrInvalid)
	assert.ErrorIs(t, Credentials{Username: "alice", Password: "pw", StoredCredential: []byte("x")}.Validate(), ErrInvalid)
	assert.ErrorIs(t, UserPass("", "pw").Validate(), ErrInvalid)
}

func TestLoginCredentials(t *testing.T) {
	lc := UserPass("alice", "pw").LoginCredentials()
	assert.Equal(t, spotify.AuthenticationType_AUTHENTICATION_USER_PASS, lc.Typ)
	assert.Equal(t, []byte("pw"), lc.AuthData)

	lc = Stored("alice", []byte("reusable")).LoginCredentials()
	assert.Equal(t, spotify.AuthenticationType_AUTHENTICATION_STORED_SPOTIFY_CREDENTIALS, lc.Typ)
	assert.Equal(t, []byte("reusable"), lc.AuthData)
}

// encodeBlob is the inverse of DecodeBlob.
func encodeBlob(t *testing.T, username, deviceID string, typ byte, authData []byte) string {
	t.Helper()
	plain := []byte{0x49, byte(len(username))}
	plain = append(plain, username...)
	plain = append(plain, 0x50, typ, 0x51)
	// two byte length: 200 = 0x48 | 1<<7
	require.Len(t, authData, 200)
	plain = append(plain, 0x80|0x48, 0x01)
	plain = append(plain, authData...)
	for len(plain)%aes.BlockSize != 0 {
		plain = append(plain, 0)
	}

	for j := 16; j < len(plain); j++ {
		plain[j] ^= plain[j-16]
	}
	block, err := aes.NewCipher(blobKey(username, deviceID))
	require.NoError(t, err)
	for i := 0; i < len(plain); i += aes.BlockSize {
		block.Encrypt(plain[i:i+aes.BlockSize], plain[i:i+aes.BlockSize])
	}
	return base64.StdEncoding.EncodeToString(plain)
}

func TestDecodeBlob(t *testing.T) {
	authData := make([]byte, 200)
	for i := range authData {
		authData[i] = byte(i)
	}
	blob := encodeBlob(t, "alice", "device-1", 1, authData)

	creds, err := DecodeBlob("alice", "device-1", blob)
	require.NoError(t, err)
	assert.Equal(t, "alice", creds.Username)
	assert.Equal(t, authData, creds.StoredCredential)
	assert.Equal(t, spotify.AuthenticationType_AUTHENTICATION_STORED_SPOTIFY_CREDENTIALS, creds.StoredType)
	assert.NoError(t, creds.Validate())
}

func TestDecodeBlobWrongDevice(t *testing.T) {
	blob := encodeBlob(t, "alice", "device-1", 1, make([]byte, 200))
	creds, err := DecodeBlob("alice", "device-2", blob)
	if err == nil {
		assert.NotEqual(t, make([]byte, 200), creds.StoredCredential)
	}
}

func TestDecodeBlobRejectsMalformed(t *testing.T) {
	_, err := DecodeBlob("alice", "device", "not base64!")
	assert.Error(t, err)
	_, err = DecodeBlob("alice", "device", base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestReadInt(t *testing.T) {
	for _, tc := range []struct {
		in   []byte
		want uint32
	}{
		{[]byte{0x05}, 5},
		{[]byte{0x7f}, 127},
		{[]byte{0x80 | 0x48, 0x01}, 200},
		{[]byte{0xff, 0xff}, 0x7f | 0xff<<7},
	} {
		got, err := readInt(bytes.NewReader(tc.in))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}
