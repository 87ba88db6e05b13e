package spclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"

	"spotify-ap/audio"
)

var ErrNoCDN = errors.New("spclient: no usable cdn url")

// DefaultCDNBlacklist holds host substrings of CDN nodes serving broken
// certificates.
var DefaultCDNBlacklist = []string{"audio4-fa.scdn.co"}

const (
	KindTrack   = "track"
	KindEpisode = "episode"
)

// Metadata is the subset of the metadata service reply needed to stream.
type Metadata struct {
	GID         string       `json:"gid"`
	Name        string       `json:"name"`
	File        []audio.File `json:"file"`
	Audio       []audio.File `json:"audio"`
	Alternative []Metadata   `json:"alternative"`
	HasLyrics   bool         `json:"has_lyrics"`
}

// Files returns the encodings of a track or episode and the gid they
// belong to. A track without files of its own is served by its first
// alternative.
func (m *Metadata) Files(kind string) (string, []audio.File) {
	if kind == KindEpisode {
		return m.GID, m.Audio
	}
	if len(m.File) == 0 && len(m.Alternative) > 0 {
		return m.Alternative[0].GID, m.Alternative[0].File
	}
	return m.GID, m.File
}

// Metadata fetches the metadata of the track or episode with the given hex
// gid.
func (c *Client) Metadata(ctx context.Context, kind, hexID string) (*Metadata, error) {
	var m Metadata
	if err := c.GetJSON(ctx, fmt.Sprintf("/metadata/4/%s/%s", kind, hexID), &m); err != nil {
		return nil, fmt.Errorf("fetching %s metadata: %w", kind, err)
	}
	return &m, nil
}

// StorageResolve lists the CDN locations of an encoded file.
type StorageResolve struct {
	FileID string   `json:"fileid"`
	CDNURL []string `json:"cdnurl"`
}

func (c *Client) StorageResolve(ctx context.Context, fileID string) (*StorageResolve, error) {
	var s StorageResolve
	if err := c.GetJSON(ctx, "/storage-resolve/files/audio/interactive/"+fileID+"?alt=json", &s); err != nil {
		return nil, fmt.Errorf("resolving storage: %w", err)
	}
	if s.FileID == "" {
		s.FileID = fileID
	}
	return &s, nil
}

// PickCDN chooses a random URL whose host is not blacklisted.
func (c *Client) PickCDN(urls []string) (string, error) {
	var usable []string
	for _, u := range urls {
		if !c.blacklisted(u) {
			usable = append(usable, u)
		}
	}
	if len(usable) == 0 {
		return "", fmt.Errorf("%w among %d candidates", ErrNoCDN, len(urls))
	}
	chosen := usable[rand.IntN(len(usable))]
	c.log.Printf("using cdn %s", hostOf(chosen))
	return chosen, nil
}

func (c *Client) blacklisted(rawURL string) bool {
	host := hostOf(rawURL)
	for _, bad := range c.blacklist {
		if bad != "" && strings.Contains(host, bad) {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}

// OpenCDN starts an unauthenticated download of an encrypted object. Only
// the wait for the response headers is bounded by the timeout.
func (c *Client) OpenCDN(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating cdn request: %w", err)
	}
	resp, err := c.cdn.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching cdn object: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: hostOf(rawURL)}
	}
	return resp, nil
}
