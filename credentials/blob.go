package credentials

import (
	"bytes"
	"crypto/aes"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"spotify-ap/proto/spotify"
)

// DecodeBlob decrypts a base64 credential blob issued for username and
// deviceID.
func DecodeBlob(username, deviceID, blob string) (Credentials, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return Credentials{}, fmt.Errorf("decoding blob: %w", err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return Credentials{}, fmt.Errorf("blob length %d is not a multiple of %d", len(data), aes.BlockSize)
	}

	block, err := aes.NewCipher(blobKey(username, deviceID))
	if err != nil {
		return Credentials{}, fmt.Errorf("new aes cipher: %w", err)
	}
	for i := 0; i < len(data); i += aes.BlockSize {
		block.Decrypt(data[i:i+aes.BlockSize], data[i:i+aes.BlockSize])
	}
	l := len(data)
	for i := 0; i < l-16; i++ {
		data[l-i-1] ^= data[l-i-17]
	}

	typ, authData, err := parseBlob(bytes.NewReader(data))
	if err != nil {
		return Credentials{}, fmt.Errorf("parsing blob: %w", err)
	}
	return Credentials{
		Username:         username,
		StoredCredential: authData,
		StoredType:       spotify.AuthenticationType(typ),
	}, nil
}

// blobKey is SHA1(PBKDF2-HMAC-SHA1(SHA1(deviceID), username, 256, 20))
// followed by the big-endian length 20, an AES-192 key.
func blobKey(username, deviceID string) []byte {
	secret := sha1.Sum([]byte(deviceID))
	base := pbkdf2.Key(secret[:], []byte(username), 256, 20, sha1.New)
	hash := sha1.Sum(base)
	return binary.BigEndian.AppendUint32(hash[:], 20)
}

func parseBlob(r *bytes.Reader) (uint32, []byte, error) {
	if _, err := r.ReadByte(); err != nil {
		return 0, nil, err
	}
	if _, err := readBytes(r); err != nil {
		return 0, nil, err
	}
	if _, err := r.ReadByte(); err != nil {
		return 0, nil, err
	}
	typ, err := readInt(r)
	if err != nil {
		return 0, nil, err
	}
	if _, err := r.ReadByte(); err != nil {
		return 0, nil, err
	}
	data, err := readBytes(r)
	if err != nil {
		return 0, nil, err
	}
	return typ, data, nil
}

// readInt reads a one or two byte integer: seven low bits, and a second
// byte holding the high bits when the top bit is set.
func readInt(r *bytes.Reader) (uint32, error) {
	lo, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if lo&0x80 == 0 {
		return uint32(lo), nil
	}
	hi, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint32(lo&0x7f) | uint32(hi)<<7, nil
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readInt(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
