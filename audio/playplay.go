package audio

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"spotify-ap/proto/spotify"
)

var ErrNoDeobfuscator = errors.New("audio: playplay deobfuscator not configured")

// Deobfuscator turns the obfuscated key of a license response into the
// content key. Implementations live outside this module.
type Deobfuscator interface {
	Token() []byte
	DeobfuscateKey(fileID, obfuscatedKey []byte) ([]byte, error)
}

// Doer performs an authenticated request against the service API, failing
// on non-2xx statuses.
type Doer interface {
	Do(ctx context.Context, method, url string, body io.Reader, header http.Header) (*http.Response, error)
}

// PlayPlay obtains content keys through the license exchange instead of
// the access point.
type PlayPlay struct {
	doer Doer
	deob Deobfuscator
	now  func() time.Time
}

func NewPlayPlay(doer Doer, deob Deobfuscator) *PlayPlay {
	return &PlayPlay{doer: doer, deob: deob, now: time.Now}
}

func (p *PlayPlay) AudioKey(ctx context.Context, fileID string, contentType spotify.ContentType) ([]byte, error) {
	if p.deob == nil {
		return nil, ErrNoDeobfuscator
	}
	rawID, err := hex.DecodeString(fileID)
	if err != nil {
		return nil, fmt.Errorf("decoding file id: %w", err)
	}

	body, err := spotify.Marshal(&spotify.PlayPlayLicenseRequest{
		Version:       2,
		Token:         p.deob.Token(),
		Interactivity: spotify.Interactivity_INTERACTIVE,
		ContentType:   contentType,
		Timestamp:     p.now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling license request: %w", err)
	}

	header := http.Header{}
	header.Set("Accept-Language", "en-US")
	header.Set("Spotify-App-Version", "8.9.86.551")
	header.Set("App-Platform", "Android")
	header.Set("User-Agent", "Spotify/8.9.86.551 Android/34 (sdk_gphone64_x86_64)")
	header.Set("Content-Type", "text/plain")

	resp, err := p.doer.Do(ctx, http.MethodPost, "/playplay/v1/key/"+fileID, bytes.NewReader(body), header)
	if err != nil {
		return nil, fmt.Errorf("requesting license: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading license: %w", err)
	}
	var license spotify.PlayPlayLicenseResponse
	if err := spotify.Unmarshal(data, &license); err != nil {
		return nil, fmt.Errorf("unmarshalling license: %w", err)
	}
	if len(license.GetObfuscatedKey()) == 0 {
		return nil, errors.New("audio: license response carries no key")
	}

	key, err := p.deob.DeobfuscateKey(rawID, license.GetObfuscatedKey())
	if err != nil {
		return nil, fmt.Errorf("deobfuscating key: %w", err)
	}
	return key, nil
}
