package spclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"net/url"
)

const (
	DefaultResolveURL   = "http://apresolve.spotify.com/"
	FallbackAccessPoint = "ap.spotify.com:80"

	ServiceAccessPoint = "accesspoint"
	ServiceSpclient    = "spclient"
)

// Resolver asks apresolve for the current endpoints of a service.
type Resolver struct {
	http *http.Client
	url  string
	log  *log.Logger
}

// NewResolver uses DefaultResolveURL when resolveURL is empty.
func NewResolver(client *http.Client, resolveURL string, logger *log.Logger) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if resolveURL == "" {
		resolveURL = DefaultResolveURL
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Resolver{http: client, url: resolveURL, log: logger}
}

// Resolve returns a random endpoint of service.
func (r *Resolver) Resolve(ctx context.Context, service string) (string, error) {
	u, err := url.Parse(r.url)
	if err != nil {
		return "", fmt.Errorf("parsing resolve url: %w", err)
	}
	q := u.Query()
	q.Set("type", service)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("creating resolve request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", service, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode, URL: u.String()}
	}

	var lists map[string][]string
	if err := json.NewDecoder(resp.Body).Decode(&lists); err != nil {
		return "", fmt.Errorf("decoding resolve reply: %w", err)
	}
	endpoints := lists[service]
	if len(endpoints) == 0 {
		return "", fmt.Errorf("resolving %s: no endpoints", service)
	}
	return endpoints[rand.IntN(len(endpoints))], nil
}

// AccessPoint resolves an access point, falling back to
// FallbackAccessPoint when apresolve is unreachable.
func (r *Resolver) AccessPoint(ctx context.Context) string {
	addr, err := r.Resolve(ctx, ServiceAccessPoint)
	if err != nil {
		r.log.Printf("apresolve failed, using %s: %v", FallbackAccessPoint, err)
		return FallbackAccessPoint
	}
	return addr
}

func (r *Resolver) Spclient(ctx context.Context) (string, error) {
	return r.Resolve(ctx, ServiceSpclient)
}
