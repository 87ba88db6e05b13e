package spclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"spotify-ap/ap"
)

// DefaultScopes are requested when the caller names none.
var DefaultScopes = []string{
	"user-read-playback-state",
	"user-read-private",
	"user-read-birthdate",
	"user-read-email",
	"playlist-read-private",
	"user-library-read",
	"user-library-modify",
	"user-top-read",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
	"user-follow-read",
	"user-follow-modify",
	"user-read-currently-playing",
	"user-modify-playback-state",
	"user-read-recently-played",
}

// Mercury is the part of an access point session the keymaster needs.
type Mercury interface {
	Mercury(ctx context.Context, req ap.MercuryRequest) (*ap.MercuryResponse, error)
}

// Token is a keymaster access token.
type Token struct {
	AccessToken string   `json:"accessToken"`
	ExpiresIn   int      `json:"expiresIn"`
	TokenType   string   `json:"tokenType"`
	Scope       []string `json:"scope"`
	Permissions []int    `json:"permissions"`

	CreatedAt time.Time `json:"-"`
}

func (t *Token) Expired(now time.Time) bool {
	return now.After(t.CreatedAt.Add(time.Duration(t.ExpiresIn) * time.Second))
}

// Covers reports whether every scope in scopes was granted.
func (t *Token) Covers(scopes []string) bool {
	for _, s := range scopes {
		if !slices.Contains(t.Scope, s) {
			return false
		}
	}
	return true
}

// TokenProvider mints access tokens over mercury and caches the latest one.
// Concurrent requests for the same scopes share one keymaster round trip.
type TokenProvider struct {
	mercury  Mercury
	clientID string
	deviceID string
	scopes   []string
	timeout  time.Duration
	now      func() time.Time

	group singleflight.Group

	mu    sync.Mutex
	token *Token
}

type TokenOption func(*TokenProvider)

// WithFetchTimeout bounds each keymaster round trip. Defaults to
// DefaultTimeout.
func WithFetchTimeout(d time.Duration) TokenOption {
	return func(p *TokenProvider) { p.timeout = d }
}

// NewTokenProvider uses DefaultScopes when scopes is empty.
func NewTokenProvider(m Mercury, clientID, deviceID string, scopes []string, opts ...TokenOption) *TokenProvider {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	p := &TokenProvider{
		mercury:  m,
		clientID: clientID,
		deviceID: deviceID,
		scopes:   scopes,
		timeout:  DefaultTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token returns an access token for the default scopes.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	t, err := p.TokenFor(ctx, p.scopes)
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// TokenFor returns the cached token when it is still valid and covers
// scopes, and fetches a new one otherwise.
func (p *TokenProvider) TokenFor(ctx context.Context, scopes []string) (*Token, error) {
	p.mu.Lock()
	cached := p.token
	p.mu.Unlock()
	if cached != nil && !cached.Expired(p.now()) && cached.Covers(scopes) {
		return cached, nil
	}

	key := strings.Join(scopes, ",")
	ch := p.group.DoChan(key, func() (any, error) {
		// Shared by every waiter, so detached from the first caller but
		// still bounded.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		return p.fetch(fctx, key)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Token), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *TokenProvider) fetch(ctx context.Context, scopes string) (*Token, error) {
	uri := fmt.Sprintf("hm://keymaster/token/authenticated?scope=%s&client_id=%s&device_id=%s",
		scopes, url.QueryEscape(p.clientID), url.QueryEscape(p.deviceID))

	resp, err := p.mercury.Mercury(ctx, ap.MercuryRequest{Method: "GET", URI: uri})
	if err != nil {
		return nil, fmt.Errorf("requesting keymaster token: %w", err)
	}
	if len(resp.Payload) == 0 {
		return nil, errors.New("keymaster reply carries no payload")
	}

	var t Token
	if err := json.Unmarshal(resp.Payload[0], &t); err != nil {
		return nil, fmt.Errorf("decoding keymaster token: %w", err)
	}
	if t.AccessToken == "" {
		return nil, errors.New("keymaster reply carries no access token")
	}
	t.CreatedAt = p.now()

	p.mu.Lock()
	p.token = &t
	p.mu.Unlock()
	return &t, nil
}
