package audio

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotify-ap/proto/spotify"
)

type recordingDoer struct {
	method string
	url    string
	header http.Header
	body   []byte
	reply  []byte
}

func (d *recordingDoer) Do(_ context.Context, method, url string, body io.Reader, header http.Header) (*http.Response, error) {
	d.method, d.url, d.header = method, url, header
	d.body, _ = io.ReadAll(body)
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(d.reply))}, nil
}

type xorDeobfuscator struct {
	gotFileID []byte
}

func (x *xorDeobfuscator) Token() []byte { return []byte("playplay-token") }

func (x *xorDeobfuscator) DeobfuscateKey(fileID, obfuscated []byte) ([]byte, error) {
	x.gotFileID = fileID
	out := make([]byte, len(obfuscated))
	for i := range obfuscated {
		out[i] = obfuscated[i] ^ fileID[i%len(fileID)]
	}
	return out, nil
}

func TestPlayPlayAudioKey(t *testing.T) {
	const fileID = "00112233445566778899aabbccddeeff00112233"
	reply, err := spotify.Marshal(&spotify.PlayPlayLicenseResponse{ObfuscatedKey: bytes.Repeat([]byte{0xaa}, 16)})
	require.NoError(t, err)

	doer := &recordingDoer{reply: reply}
	deob := &xorDeobfuscator{}
	p := NewPlayPlay(doer, deob)
	p.now = func() time.Time { return time.Unix(1700000000, 0) }

	key, err := p.AudioKey(context.Background(), fileID, spotify.ContentType_AUDIO_TRACK)
	require.NoError(t, err)

	raw, _ := hex.DecodeString(fileID)
	assert.Equal(t, raw, deob.gotFileID)
	require.Len(t, key, 16)
	assert.Equal(t, byte(0xaa^0x00), key[0])
	assert.Equal(t, byte(0xaa^0x11), key[1])

	assert.Equal(t, http.MethodPost, doer.method)
	assert.Equal(t, "/playplay/v1/key/"+fileID, doer.url)
	assert.Equal(t, "text/plain", doer.header.Get("Content-Type"))
	assert.Equal(t, "Android", doer.header.Get("App-Platform"))

	var req spotify.PlayPlayLicenseRequest
	require.NoError(t, spotify.Unmarshal(doer.body, &req))
	assert.Equal(t, int32(2), req.Version)
	assert.Equal(t, []byte("playplay-token"), req.GetToken())
	assert.Equal(t, spotify.Interactivity_INTERACTIVE, req.Interactivity)
	assert.Equal(t, spotify.ContentType_AUDIO_TRACK, req.ContentType)
	assert.Equal(t, int64(1700000000), req.Timestamp)
}

func TestPlayPlayWithoutDeobfuscator(t *testing.T) {
	p := NewPlayPlay(&recordingDoer{}, nil)
	_, err := p.AudioKey(context.Background(), "00", spotify.ContentType_AUDIO_EPISODE)
	assert.ErrorIs(t, err, ErrNoDeobfuscator)
}

func TestPlayPlayEmptyLicense(t *testing.T) {
	p := NewPlayPlay(&recordingDoer{}, &xorDeobfuscator{})
	_, err := p.AudioKey(context.Background(), "0011", spotify.ContentType_AUDIO_TRACK)
	assert.Error(t, err)
}
