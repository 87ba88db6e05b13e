// Package fingerprint answers the access point's Grain-128 fingerprint
// challenge.
package fingerprint

import (
	"crypto/aes"
	"crypto/cipher"
	crand "crypto/rand"
	"crypto/sha1"
	"fmt"

	"github.com/ksp237/grain128-go"
)

const keySize = 16

// Grain holds the client secret behind the nonce sent in ClientHello.
type Grain struct {
	ClientNonce []byte
	secret      []byte
}

// NewGrain draws a random secret and derives the client nonce from it.
func NewGrain() (*Grain, error) {
	secret := make([]byte, keySize)
	if _, err := crand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating random secret: %w", err)
	}
	return FromSecret(secret)
}

// FromSecret builds a Grain from a known 16 byte secret.
func FromSecret(secret []byte) (*Grain, error) {
	if len(secret) != keySize {
		return nil, fmt.Errorf("secret must be %d bytes, got %d", keySize, len(secret))
	}
	nonce, err := keystream(secret, make([]byte, keySize))
	if err != nil {
		return nil, err
	}
	return &Grain{
		ClientNonce: nonce,
		secret:      append([]byte(nil), secret...),
	}, nil
}

// EncryptedKey wraps the client secret for the fingerprint_response of
// ClientResponseEncrypted. clientHello and apResponse are the encoded
// handshake messages, without their length prefixes.
func (g *Grain) EncryptedKey(clientHello, apResponse, kek []byte) ([]byte, error) {
	block, err := wrappingCipher(clientHello, apResponse, kek)
	if err != nil {
		return nil, err
	}

	// AES-CBC without padding, the secret is exactly one block
	out := make([]byte, len(g.secret))
	cipher.NewCBCEncrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(out, g.secret)
	return out, nil
}

// DecryptKey recovers the client secret from an encrypted key and checks it
// against the nonce the client announced.
func DecryptKey(clientHello, apResponse, kek, clientNonce, encryptedKey []byte) ([]byte, error) {
	if len(encryptedKey) != keySize {
		return nil, fmt.Errorf("encrypted key must be %d bytes, got %d", keySize, len(encryptedKey))
	}
	block, err := wrappingCipher(clientHello, apResponse, kek)
	if err != nil {
		return nil, err
	}
	secret := make([]byte, keySize)
	cipher.NewCBCDecrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(secret, encryptedKey)

	plaintext, err := keystream(secret, clientNonce)
	if err != nil {
		return nil, err
	}
	for _, b := range plaintext {
		if b != 0 {
			return nil, fmt.Errorf("nonce verification failed: expected zero block, got %x", plaintext)
		}
	}
	return secret, nil
}

// wrappingCipher keys AES with the Grain keystream of kek applied to the
// first 16 bytes of SHA1(clientHello || apResponse).
func wrappingCipher(clientHello, apResponse, kek []byte) (cipher.Block, error) {
	hash := sha1.New()
	hash.Write(clientHello)
	hash.Write(apResponse)
	digest := hash.Sum(nil)

	aesKey, err := keystream(kek, digest[:keySize])
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("new aes cipher: %w", err)
	}
	return block, nil
}

func keystream(key, src []byte) ([]byte, error) {
	g, err := grain128.NewGrain128(key)
	if err != nil {
		return nil, fmt.Errorf("new grain: %w", err)
	}
	g.IVSetup(make([]byte, keySize))
	dst := make([]byte, len(src))
	g.XORKeyStream(dst, src)
	return dst, nil
}
