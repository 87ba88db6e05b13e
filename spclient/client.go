// Package spclient talks to the HTTPS side of the service: endpoint
// resolution, the authenticated API, storage resolution and the CDN.
package spclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every API call unless overridden.
const DefaultTimeout = 20 * time.Second

// StatusError is a non-2xx reply.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d error code on %s", e.StatusCode, e.URL)
}

// TokenSource yields the bearer token attached to API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client performs authenticated API requests. Relative URLs are resolved
// against the spclient host it was created for.
type Client struct {
	base      string
	tokens    TokenSource
	api       *http.Client
	cdn       *http.Client
	blacklist []string
	log       *log.Logger
}

type Option func(*Client)

// WithTimeout bounds API calls and the wait for CDN response headers.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.api.Timeout = d
		c.cdn.Transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: d,
		}
	}
}

// WithBaseURL replaces the https://host prefix of relative URLs.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = strings.TrimRight(base, "/") }
}

// WithCDNBlacklist replaces DefaultCDNBlacklist.
func WithCDNBlacklist(hosts []string) Option {
	return func(c *Client) { c.blacklist = hosts }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(host string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		base:      "https://" + host,
		tokens:    tokens,
		api:       &http.Client{},
		cdn:       &http.Client{},
		blacklist: DefaultCDNBlacklist,
	}
	WithTimeout(DefaultTimeout)(c)
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = log.New(io.Discard, "", 0)
	}
	return c
}

func (c *Client) resolve(url string) string {
	if strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://") {
		return url
	}
	return c.base + url
}

// Do sends an authenticated request. The caller closes the body of the
// returned response; non-2xx replies are turned into a StatusError.
func (c *Client) Do(ctx context.Context, method, url string, body io.Reader, header http.Header) (*http.Response, error) {
	url = c.resolve(url)
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.api.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}
	return resp, nil
}

// GetJSON fetches url and decodes the JSON reply into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	header := http.Header{}
	header.Set("Accept", "application/json")
	resp, err := c.Do(ctx, http.MethodGet, url, nil, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}
