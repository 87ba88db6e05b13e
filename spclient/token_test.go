package spclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotify-ap/ap"
)

type fakeMercury struct {
	calls   atomic.Int32
	uris    chan string
	release chan struct{}
	err     error
	scopes  []string
	// stall leaves the first stall requests unanswered until ctx ends.
	stall int32
}

func (f *fakeMercury) Mercury(ctx context.Context, req ap.MercuryRequest) (*ap.MercuryResponse, error) {
	if n := f.calls.Add(1); n <= f.stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.uris != nil {
		f.uris <- req.URI
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	body, err := json.Marshal(map[string]any{
		"accessToken": fmt.Sprintf("at-%d", f.calls.Load()),
		"expiresIn":   3600,
		"tokenType":   "Bearer",
		"scope":       f.scopes,
		"permissions": []int{1},
	})
	if err != nil {
		return nil, err
	}
	return &ap.MercuryResponse{Payload: [][]byte{body}}, nil
}

func TestTokenProviderRequest(t *testing.T) {
	m := &fakeMercury{uris: make(chan string, 1), scopes: []string{"a", "b"}}
	p := NewTokenProvider(m, "cid", "dev", []string{"a", "b"})

	tok, err := p.TokenFor(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, []int{1}, tok.Permissions)

	uri := <-m.uris
	assert.True(t, strings.HasPrefix(uri, "hm://keymaster/token/authenticated?"))
	u, err := url.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, "a,b", u.Query().Get("scope"))
	assert.Equal(t, "cid", u.Query().Get("client_id"))
	assert.Equal(t, "dev", u.Query().Get("device_id"))
}

func TestTokenProviderCaches(t *testing.T) {
	m := &fakeMercury{scopes: []string{"a", "b"}}
	p := NewTokenProvider(m, "cid", "dev", []string{"a", "b"})
	now := time.Unix(1000, 0)
	p.now = func() time.Time { return now }

	s, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at-1", s)

	_, err = p.TokenFor(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), m.calls.Load())

	_, err = p.TokenFor(context.Background(), []string{"c"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), m.calls.Load())

	now = now.Add(2 * time.Hour)
	s, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at-3", s)
}

func TestTokenProviderSharesConcurrentFetches(t *testing.T) {
	m := &fakeMercury{release: make(chan struct{}), scopes: DefaultScopes}
	p := NewTokenProvider(m, "cid", "dev", nil)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = p.Token(context.Background())
		}()
	}
	require.Eventually(t, func() bool { return m.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(m.release)
	wg.Wait()

	assert.Equal(t, int32(1), m.calls.Load())
	for _, r := range results {
		assert.Equal(t, "at-1", r)
	}
}

func TestTokenProviderErrors(t *testing.T) {
	m := &fakeMercury{err: &ap.MercuryStatusError{URI: "hm://keymaster", StatusCode: 403}}
	p := NewTokenProvider(m, "cid", "dev", nil)
	_, err := p.Token(context.Background())
	var statusErr *ap.MercuryStatusError
	assert.ErrorAs(t, err, &statusErr)

	m = &fakeMercury{release: make(chan struct{})}
	defer close(m.release)
	p = NewTokenProvider(m, "cid", "dev", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Token(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTokenExpiry(t *testing.T) {
	tok := &Token{ExpiresIn: 60, CreatedAt: time.Unix(0, 0), Scope: []string{"x", "y"}}
	assert.False(t, tok.Expired(time.Unix(59, 0)))
	assert.True(t, tok.Expired(time.Unix(61, 0)))
	assert.True(t, tok.Covers([]string{"y"}))
	assert.False(t, tok.Covers([]string{"y", "z"}))
}

func TestTokenProviderRecoversFromLostReply(t *testing.T) {
	m := &fakeMercury{stall: 1, scopes: DefaultScopes}
	p := NewTokenProvider(m, "cid", "dev", nil, WithFetchTimeout(30*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := p.Token(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	tok, err := p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "at-2", tok)
	assert.Equal(t, int32(2), m.calls.Load())
}
