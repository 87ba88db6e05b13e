// Package librespot ties the access point session, the token sources and
// the HTTPS services together into a client that can stream tracks and
// episodes.
package librespot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"spotify-ap/ap"
	"spotify-ap/audio"
	"spotify-ap/config"
	"spotify-ap/credentials"
	"spotify-ap/login5"
	"spotify-ap/proto/spotify"
	"spotify-ap/spclient"
)

type Client struct {
	cfg     config.Config
	log     *log.Logger
	session *ap.Session
	tokens  spclient.TokenSource
	api     *spclient.Client
	// playplay is nil unless a deobfuscator was supplied.
	playplay *audio.PlayPlay

	maxQuality audio.Quality
	codec      audio.Codec
}

type options struct {
	logger       *log.Logger
	httpClient   *http.Client
	spclientHost string
	spclientBase string
	deobfuscator audio.Deobfuscator
	useLogin5    bool
	login5Opts   []login5.Option
}

type Option func(*options)

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient is used for endpoint resolution and login5.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithSpclient skips spclient resolution.
func WithSpclient(host string) Option {
	return func(o *options) { o.spclientHost = host }
}

// WithSpclientURL is WithSpclient with an explicit scheme.
func WithSpclientURL(base string) Option {
	return func(o *options) { o.spclientBase = base }
}

// WithPlayPlay fetches content keys through the license exchange instead
// of the access point.
func WithPlayPlay(d audio.Deobfuscator) Option {
	return func(o *options) { o.deobfuscator = d }
}

// WithLogin5 authenticates API calls with login5 tokens minted from the
// session's reusable credential instead of keymaster tokens.
func WithLogin5(opts ...login5.Option) Option {
	return func(o *options) {
		o.useLogin5 = true
		o.login5Opts = opts
	}
}

// Connect resolves endpoints, opens an access point session and
// authenticates it with creds.
func Connect(ctx context.Context, cfg config.Config, creds credentials.Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Timeout()}
	}

	resolver := spclient.NewResolver(o.httpClient, cfg.ResolveURL, o.logger)
	addr := cfg.AccessPoint
	if addr == "" {
		addr = resolver.AccessPoint(ctx)
	}
	var spOpts []spclient.Option
	host := o.spclientHost
	if o.spclientBase != "" {
		spOpts = append(spOpts, spclient.WithBaseURL(o.spclientBase))
	} else if host == "" {
		var err error
		if host, err = resolver.Spclient(ctx); err != nil {
			return nil, fmt.Errorf("resolving spclient: %w", err)
		}
	}

	session, err := ap.Connect(ctx, addr, ap.Options{
		Handshake: cfg.HandshakeOptions(),
		DeviceID:  cfg.DeviceID,
		Logger:    o.logger,
	})
	if err != nil {
		return nil, err
	}
	welcome, err := session.Login(ctx, creds.LoginCredentials())
	if err != nil {
		session.Close()
		return nil, err
	}

	c := &Client{
		cfg:     cfg,
		log:     o.logger,
		session: session,
		codec:   audio.Codec(cfg.Codec),
	}

	if o.useLogin5 {
		lc := login5.New(cfg.ClientID, cfg.DeviceID, append([]login5.Option{
			login5.WithHTTPClient(o.httpClient),
			login5.WithLogger(o.logger),
		}, o.login5Opts...)...)
		stored := credentials.Stored(welcome.GetCanonicalUsername(), welcome.GetReusableAuthCredentials())
		res, err := lc.Login(ctx, stored)
		if err != nil {
			session.Close()
			return nil, fmt.Errorf("login5: %w", err)
		}
		c.tokens = &login5Tokens{client: lc, now: time.Now, result: res}
	} else {
		c.tokens = spclient.NewTokenProvider(session, cfg.ClientID, cfg.DeviceID, cfg.Scopes,
			spclient.WithFetchTimeout(cfg.Timeout()))
	}
	// Fetching the first token also gives the product info time to land
	// before the premium check.
	if _, err := c.tokens.Token(ctx); err != nil {
		session.Close()
		return nil, fmt.Errorf("fetching token: %w", err)
	}

	c.api = spclient.New(host, c.tokens, append(spOpts,
		spclient.WithTimeout(cfg.Timeout()),
		spclient.WithCDNBlacklist(cfg.CDNBlacklist),
		spclient.WithLogger(o.logger),
	)...)
	if o.deobfuscator != nil {
		c.playplay = audio.NewPlayPlay(c.api, o.deobfuscator)
	}

	c.maxQuality = audio.QualityHigh
	switch {
	case cfg.MaxQuality != nil:
		c.maxQuality = audio.Quality(*cfg.MaxQuality)
	case session.IsPremium():
		c.maxQuality = audio.QualityVeryHigh
	}
	c.log.Printf("logged in as %s (country %s, max quality %s)",
		welcome.GetCanonicalUsername(), session.CountryCode(), c.maxQuality)
	return c, nil
}

func (c *Client) Session() *ap.Session { return c.session }

func (c *Client) API() *spclient.Client { return c.api }

func (c *Client) Welcome() *spotify.APWelcome { return c.session.Welcome() }

func (c *Client) IsPremium() bool { return c.session.IsPremium() }

func (c *Client) MaxQuality() audio.Quality { return c.maxQuality }

func (c *Client) SetMaxQuality(q audio.Quality) { c.maxQuality = q }

// Token returns a bearer token for the service API.
func (c *Client) Token(ctx context.Context) (string, error) {
	return c.tokens.Token(ctx)
}

func (c *Client) Close() error {
	return c.session.Close()
}
