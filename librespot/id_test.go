package librespot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase62ToHex(t *testing.T) {
	for in, want := range map[string]string{
		"6rqhFgbbKwnb9MLmUQDhG6": "d3aca7e43e3b452cbfa9ddd2eab9497e",
		"4uLU6hMCjMI75M1A2tKUQC": "93bc414a606747b2b612491ef83d5a3e",
		"z":                      "00000000000000000000000000000023",
		"10":                     "0000000000000000000000000000003e",
		"0":                      "00000000000000000000000000000000",
	} {
		got, err := Base62ToHex(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestBase62ToHexRejects(t *testing.T) {
	for _, in := range []string{"", "abc-def", "ZZZZZZZZZZZZZZZZZZZZZZZZZ"} {
		_, err := Base62ToHex(in)
		assert.ErrorIs(t, err, ErrInvalidID, in)
	}
}

func TestParseURI(t *testing.T) {
	for _, tc := range []struct {
		in, kind, id string
	}{
		{"spotify:track:6rqhFgbbKwnb9MLmUQDhG6", "track", "6rqhFgbbKwnb9MLmUQDhG6"},
		{"spotify:episode:abc", "episode", "abc"},
		{"https://open.spotify.com/track/6rqhFgbbKwnb9MLmUQDhG6?si=xyz", "track", "6rqhFgbbKwnb9MLmUQDhG6"},
		{"https://open.spotify.com/intl-de/episode/abc", "episode", "abc"},
	} {
		kind, id, err := ParseURI(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.kind, kind)
		assert.Equal(t, tc.id, id)
	}

	for _, in := range []string{"spotify:album:abc", "spotify:track", "spotify:track:", "https://open.spotify.com/"} {
		_, _, err := ParseURI(in)
		assert.Error(t, err, in)
	}
}
