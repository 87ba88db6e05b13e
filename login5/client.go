// Package login5 implements the HTTPS login exchange that trades
// credentials for an access token and a reusable stored credential, solving
// the hashcash challenge the endpoint may pose.
package login5

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"spotify-ap/credentials"
	"spotify-ap/proto/spotify"
)

const (
	URLv3 = "https://login5.spotify.com/v3/login"
	URLv4 = "https://login5.spotify.com/v4/login"

	userAgent      = "Spotify/8.9.86.551 Android/34 (sdk_gphone64_x86_64)"
	interactionURI = "https://auth-callback.spotify.com/r/android/music/login"
)

// Result is a successful login.
type Result struct {
	Username         string
	AccessToken      string
	StoredCredential []byte
	ExpiresIn        time.Duration
	// ExpiresAt is ExpiresIn measured from when the response arrived.
	ExpiresAt time.Time
}

type Client struct {
	clientID string
	deviceID string
	http     *http.Client
	log      *log.Logger
	urlV3    string
	urlV4    string

	mu      sync.Mutex
	refresh *credentials.Credentials
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithLogger(l *log.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

// WithEndpoints overrides the stored credential (v3) and interactive (v4)
// login URLs.
func WithEndpoints(v3, v4 string) Option {
	return func(cl *Client) {
		cl.urlV3 = v3
		cl.urlV4 = v4
	}
}

func New(clientID, deviceID string, opts ...Option) *Client {
	c := &Client{
		clientID: clientID,
		deviceID: deviceID,
		http:     &http.Client{Timeout: 20 * time.Second},
		urlV3:    URLv3,
		urlV4:    URLv4,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = log.New(io.Discard, "", 0)
	}
	return c
}

// Login authenticates creds and remembers the returned stored credential
// for Refresh.
func (c *Client) Login(ctx context.Context, creds credentials.Credentials) (*Result, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	res, err := c.flow(ctx, creds)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.refresh = &credentials.Credentials{Username: res.Username, StoredCredential: res.StoredCredential}
	c.mu.Unlock()
	return res, nil
}

// Refresh mints a new access token from the stored credential of the last
// successful Login.
func (c *Client) Refresh(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	creds := c.refresh
	c.mu.Unlock()
	if creds == nil {
		return nil, ErrNotLoggedIn
	}
	return c.flow(ctx, *creds)
}

func (c *Client) flow(ctx context.Context, creds credentials.Credentials) (*Result, error) {
	req := &spotify.LoginRequest{
		ClientInfo: &spotify.ClientInfo{ClientId: c.clientID, DeviceId: c.deviceID},
	}
	url := c.urlV3
	if creds.HasPassword() {
		req.Password = &spotify.Password{Id: creds.Username, Password: creds.Password}
		req.Interaction = &spotify.InteractionInfo{
			Uri:       interactionURI,
			Nonce:     uuid.NewString(),
			UiLocales: "en",
		}
		url = c.urlV4
	} else {
		req.StoredCredential = &spotify.StoredCredential{Username: creds.Username, Data: creds.StoredCredential}
	}

	resp, err := c.call(ctx, url, req)
	if err != nil {
		return nil, err
	}

	if challenges := resp.GetChallenges(); challenges != nil {
		var hashcash *spotify.HashcashChallenge
		for _, ch := range challenges.GetChallenges() {
			if hashcash = ch.GetHashcash(); hashcash != nil {
				break
			}
		}
		if hashcash == nil {
			return nil, fmt.Errorf("login5: no supported challenge among %d", len(challenges.GetChallenges()))
		}

		start := time.Now()
		suffix, err := SolveHashcash(ctx, resp.GetLoginContext(), hashcash.GetPrefix(), hashcash.GetLength())
		if err != nil {
			return nil, fmt.Errorf("solving hashcash: %w", err)
		}
		took := time.Since(start)
		c.log.Printf("solved hashcash of length %d in %s", hashcash.GetLength(), took)

		req.LoginContext = resp.GetLoginContext()
		req.ChallengeSolutions = &spotify.ChallengeSolutions{Solutions: []*spotify.ChallengeSolution{{
			Hashcash: &spotify.HashcashSolution{
				Suffix:   suffix,
				Duration: &spotify.Duration{Seconds: int64(took / time.Second), Nanos: int32(took % time.Second)},
			},
		}}}

		resp, err = c.call(ctx, url, req)
		if err != nil {
			return nil, err
		}
		if resp.GetOk() == nil && !resp.HasError && resp.GetChallenges() != nil {
			return nil, ErrMultipleChallenges
		}
	}

	if ok := resp.GetOk(); ok != nil {
		expiresIn := time.Duration(ok.AccessTokenExpiresIn) * time.Second
		return &Result{
			Username:         ok.Username,
			AccessToken:      ok.AccessToken,
			StoredCredential: ok.StoredCredential,
			ExpiresIn:        expiresIn,
			ExpiresAt:        time.Now().Add(expiresIn),
		}, nil
	}
	if resp.HasError {
		return nil, &LoginError{Code: resp.Error}
	}
	return nil, fmt.Errorf("login5: response carries neither ok, error nor challenges")
}

func (c *Client) call(ctx context.Context, url string, req *spotify.LoginRequest) (*spotify.LoginResponse, error) {
	body, err := spotify.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshalling login request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating login request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("Cache-Control", "no-cache, no-store, max-age=0")
	httpReq.Header.Set("User-Agent", userAgent)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("posting login request: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading login response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("login5: %d error code on %s", httpResp.StatusCode, url)
	}
	var resp spotify.LoginResponse
	if err := spotify.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshalling login response: %w", err)
	}
	return &resp, nil
}
