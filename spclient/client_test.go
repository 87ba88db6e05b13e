package spclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type failingToken struct{}

func (failingToken) Token(context.Context) (string, error) { return "", errors.New("no session") }

func newTestClient(t *testing.T, h http.Handler, opts ...Option) (*Client, *httptest.Server) {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithBaseURL(srv.URL)}, opts...)
	return New("unused.example", staticToken("tok"), opts...), srv
}

func TestDoRelativeURLCarriesBearer(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/some/path", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "yes", r.Header.Get("X-Extra"))
		w.Write([]byte("ok"))
	}))

	header := http.Header{}
	header.Set("X-Extra", "yes")
	resp, err := c.Do(context.Background(), http.MethodGet, "/some/path", nil, header)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDoAbsoluteURL(t *testing.T) {
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
	}))
	defer other.Close()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached the spclient host")
	}))
	resp, err := c.Do(context.Background(), http.MethodGet, other.URL+"/x", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
}

func TestDoStatusError(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))

	_, err := c.Do(context.Background(), http.MethodGet, "/missing", nil, nil)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, srv.URL+"/missing", statusErr.URL)
	assert.Equal(t, "404 error code on "+srv.URL+"/missing", err.Error())
}

func TestDoTokenFailure(t *testing.T) {
	c := New("unused.example", failingToken{})
	_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
	assert.ErrorContains(t, err, "no session")
}

func TestDoTimeout(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}), WithTimeout(50*time.Millisecond))
	defer close(release)

	_, err := c.Do(context.Background(), http.MethodGet, "/slow", nil, nil)
	assert.Error(t, err)
}

func TestGetJSON(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"name":"value"}`))
	}))

	var v struct{ Name string }
	require.NoError(t, c.GetJSON(context.Background(), "/json", &v))
	assert.Equal(t, "value", v.Name)

	c2, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	err := c2.GetJSON(context.Background(), "/json", &v)
	assert.True(t, strings.Contains(err.Error(), "decoding"))
}
