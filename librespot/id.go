package librespot

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"spotify-ap/spclient"
)

const base62Charset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var ErrInvalidID = errors.New("invalid id")

// Base62ToHex converts a base62 track or episode id to the 32 character hex
// gid the metadata service expects.
func Base62ToHex(id string) (string, error) {
	if id == "" {
		return "", ErrInvalidID
	}
	n := new(big.Int)
	base := big.NewInt(62)
	for _, r := range id {
		i := strings.IndexRune(base62Charset, r)
		if i < 0 {
			return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
		n.Mul(n, base)
		n.Add(n, big.NewInt(int64(i)))
	}
	h := n.Text(16)
	if len(h) > 32 {
		return "", fmt.Errorf("%w: %q exceeds 128 bits", ErrInvalidID, id)
	}
	return strings.Repeat("0", 32-len(h)) + h, nil
}

// ParseURI accepts spotify:kind:id URIs and open.spotify.com links and
// returns the kind and base62 id.
func ParseURI(s string) (kind, id string, err error) {
	if strings.HasPrefix(s, "spotify:") {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidID, s)
		}
		kind, id = parts[1], parts[2]
	} else {
		u, err := url.Parse(s)
		if err != nil {
			return "", "", fmt.Errorf("parsing %q: %w", s, err)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) < 2 {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidID, s)
		}
		kind, id = parts[len(parts)-2], parts[len(parts)-1]
	}
	if kind != spclient.KindTrack && kind != spclient.KindEpisode {
		return "", "", fmt.Errorf("unsupported kind %q", kind)
	}
	if id == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return kind, id, nil
}
