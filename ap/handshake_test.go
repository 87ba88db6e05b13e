package ap

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeysIsDeterministic(t *testing.T) {
	shared := bytes.Repeat([]byte{0x11}, 96)
	hello := []byte{0x00, 0x04, 0x00, 0x00, 0x00, 0x08, 0xaa, 0xbb}
	resp := []byte{0x00, 0x00, 0x00, 0x06, 0xcc, 0xdd}

	a := DeriveKeys(shared, hello, resp)
	b := DeriveKeys(shared, hello, resp)
	assert.Equal(t, a, b)
	assert.Len(t, a.Challenge, 20)
	assert.Len(t, a.Send, 32)
	assert.Len(t, a.Recv, 32)
	assert.NotEqual(t, a.Send, a.Recv)

	other := DeriveKeys(shared, hello, []byte{0x00, 0x00, 0x00, 0x06, 0xcc, 0xde})
	assert.NotEqual(t, a.Send, other.Send)
}

func TestDeriveKeysMatchesAccumulator(t *testing.T) {
	shared := []byte("shared secret")
	packets := []byte("hello|response")

	var acc []byte
	for i := byte(1); i <= 5; i++ {
		m := hmac.New(sha1.New, shared)
		m.Write(append(append([]byte(nil), packets...), i))
		acc = append(acc, m.Sum(nil)...)
	}
	m := hmac.New(sha1.New, acc[:20])
	m.Write(packets)

	keys := DeriveKeys(shared, []byte("hello|"), []byte("response"))
	assert.Equal(t, m.Sum(nil), keys.Challenge)
	assert.Equal(t, acc[20:52], keys.Send)
	assert.Equal(t, acc[52:84], keys.Recv)
}

func TestDHAgreement(t *testing.T) {
	a, err := NewDHKeyPair()
	require.NoError(t, err)
	b, err := NewDHKeyPair()
	require.NoError(t, err)
	require.Len(t, a.Public(), 96)

	sa, err := a.SharedSecret(b.Public())
	require.NoError(t, err)
	sb, err := b.SharedSecret(a.Public())
	require.NoError(t, err)
	assert.Equal(t, sa, sb)
	assert.Len(t, sa, 96)
}

func TestDHRejectsDegeneratePublicValue(t *testing.T) {
	a, err := NewDHKeyPair()
	require.NoError(t, err)
	_, err = a.SharedSecret([]byte{1})
	assert.Error(t, err)
}

func TestWithLength(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 6, 'h', 'i'}, WithLength([]byte("hi")))
}
