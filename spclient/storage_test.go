package spclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotify-ap/audio"
)

func TestMetadataTrackFallsBackToAlternative(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metadata/4/track/00ff", r.URL.Path)
		w.Write([]byte(`{"gid":"00ff","name":"Song","alternative":[{"gid":"0aaa","file":[{"format":"OGG_VORBIS_160","file_id":"f1"}]}]}`))
	}))

	m, err := c.Metadata(context.Background(), KindTrack, "00ff")
	require.NoError(t, err)
	assert.Equal(t, "Song", m.Name)
	gid, files := m.Files(KindTrack)
	assert.Equal(t, "0aaa", gid)
	assert.Equal(t, []audio.File{{Format: "OGG_VORBIS_160", FileID: "f1"}}, files)
}

func TestMetadataEpisodeUsesAudio(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metadata/4/episode/0bbb", r.URL.Path)
		w.Write([]byte(`{"gid":"0bbb","audio":[{"format":"OGG_VORBIS_96","file_id":"e1"}]}`))
	}))

	m, err := c.Metadata(context.Background(), KindEpisode, "0bbb")
	require.NoError(t, err)
	gid, files := m.Files(KindEpisode)
	assert.Equal(t, "0bbb", gid)
	require.Len(t, files, 1)
	assert.Equal(t, "e1", files[0].FileID)
}

func TestStorageResolve(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage-resolve/files/audio/interactive/f1", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("alt"))
		w.Write([]byte(`{"fileid":"f1","cdnurl":["https://a.example/f1","https://b.example/f1"]}`))
	}))

	s, err := c.StorageResolve(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "f1", s.FileID)
	assert.Len(t, s.CDNURL, 2)
}

func TestPickCDNSkipsBlacklist(t *testing.T) {
	c := New("unused.example", staticToken("tok"))
	urls := []string{"https://audio4-fa.scdn.co/x?sig=1", "https://audio-ak.scdn.co/x?sig=2"}
	for range 20 {
		u, err := c.PickCDN(urls)
		require.NoError(t, err)
		assert.Equal(t, urls[1], u)
	}

	_, err := c.PickCDN(urls[:1])
	assert.ErrorIs(t, err, ErrNoCDN)
	_, err = c.PickCDN(nil)
	assert.ErrorIs(t, err, ErrNoCDN)

	c = New("unused.example", staticToken("tok"), WithCDNBlacklist(nil))
	u, err := c.PickCDN(urls[:1])
	require.NoError(t, err)
	assert.Equal(t, urls[0], u)
}

func TestOpenCDN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte("encrypted"))
	}))
	defer srv.Close()

	c := New("unused.example", staticToken("tok"))
	resp, err := c.OpenCDN(context.Background(), srv.URL+"/obj")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "encrypted", string(body))

	_, err = c.OpenCDN(context.Background(), srv.URL+"/missing")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}
