package spotify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestAPResponseCarriesGrainKek(t *testing.T) {
	kek := []byte("0123456789abcdef")
	in := &APResponseMessage{Challenge: &APChallenge{
		LoginCryptoChallenge: &LoginCryptoChallengeUnion{
			DiffieHellman: &LoginCryptoDiffieHellmanChallenge{Gs: []byte{1, 2, 3}},
		},
		FingerprintChallenge: &FingerprintChallengeUnion{Grain: &FingerprintGrainChallenge{Kek: kek}},
		ServerNonce:          make([]byte, 16),
	}}
	b, err := Marshal(in)
	require.NoError(t, err)

	var out APResponseMessage
	require.NoError(t, Unmarshal(b, &out))
	assert.Equal(t, kek, out.GetChallenge().GetFingerprintChallenge().GetGrain().GetKek())
	assert.Equal(t, []byte{1, 2, 3}, out.GetChallenge().GetLoginCryptoChallenge().GetDiffieHellman().GetGs())
	assert.Nil(t, out.GetLoginFailed())
}

func TestNilGettersAreSafe(t *testing.T) {
	var r *APResponseMessage
	assert.Nil(t, r.GetChallenge().GetFingerprintChallenge().GetGrain().GetKek())
	var h *Header
	assert.Equal(t, int32(0), h.GetStatusCode())
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 99, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 7)
	b = protowire.AppendTag(b, 98, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("ignored"))
	b = appendStringField(b, 10, "alice")

	var w APWelcome
	require.NoError(t, Unmarshal(b, &w))
	assert.Equal(t, "alice", w.GetCanonicalUsername())
}

func TestTruncatedInputFails(t *testing.T) {
	b, err := Marshal(&APWelcome{CanonicalUsername: "alice", ReusableAuthCredentials: []byte("blob")})
	require.NoError(t, err)
	var w APWelcome
	assert.Error(t, Unmarshal(b[:len(b)-2], &w))
}

func TestHeaderNegativeStatus(t *testing.T) {
	b, err := Marshal(&Header{Uri: "hm://x", Method: "GET", StatusCode: -1,
		UserFields: []*UserField{{Key: "a", Value: []byte("1")}, {Key: "b", Value: []byte("2")}}})
	require.NoError(t, err)

	var h Header
	require.NoError(t, Unmarshal(b, &h))
	assert.Equal(t, int32(-1), h.GetStatusCode())
	require.Len(t, h.GetUserFields(), 2)
	assert.Equal(t, "b", h.GetUserFields()[1].Key)
}

func TestPackedRepeatedEnums(t *testing.T) {
	var packed []byte
	packed = protowire.AppendVarint(packed, uint64(Cryptosuite_CRYPTO_SUITE_SHANNON))
	packed = protowire.AppendVarint(packed, uint64(Cryptosuite_CRYPTO_SUITE_RC4_SHA1_HMAC))
	b := appendBytesField(nil, 30, packed)

	var h ClientHello
	require.NoError(t, Unmarshal(b, &h))
	assert.Equal(t, []Cryptosuite{Cryptosuite_CRYPTO_SUITE_SHANNON, Cryptosuite_CRYPTO_SUITE_RC4_SHA1_HMAC}, h.CryptosuitesSupported)
}

func TestLoginResponseChallenge(t *testing.T) {
	in := &LoginResponse{LoginContext: []byte("ctx")}
	in.Challenges = &Challenges{Challenges: []*Challenge{{Hashcash: &HashcashChallenge{Prefix: []byte{9}, Length: 10}}}}
	b, err := Marshal(in)
	require.NoError(t, err)

	var out LoginResponse
	require.NoError(t, Unmarshal(b, &out))
	assert.Nil(t, out.GetOk())
	assert.False(t, out.HasError)
	hc := out.GetChallenges().GetChallenges()[0].GetHashcash()
	assert.Equal(t, int32(10), hc.GetLength())
	assert.Equal(t, []byte("ctx"), out.GetLoginContext())
}

func TestLoginResponseZeroErrorIsPresent(t *testing.T) {
	b, err := Marshal(&LoginResponse{HasError: true, Error: LoginError_UNKNOWN_ERROR})
	require.NoError(t, err)

	var out LoginResponse
	require.NoError(t, Unmarshal(b, &out))
	assert.True(t, out.HasError)
}
