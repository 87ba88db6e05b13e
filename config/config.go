// Package config loads client settings from a YAML file, an optional .env
// file and the environment, in increasing order of precedence.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"spotify-ap/ap"
	"spotify-ap/audio"
	"spotify-ap/proto/spotify"
	"spotify-ap/spclient"
)

const (
	DefaultClientID     = "65b708073fc0480ea92a077233ca87bd"
	DefaultFetchTimeout = 20000

	EnvFetchTimeout = "LIBRESPOT_FETCH_TIMEOUT"
	EnvUsername     = "LIBRESPOT_USERNAME"
	EnvPassword     = "LIBRESPOT_PASSWORD"
	EnvDeviceID     = "LIBRESPOT_DEVICE_ID"
	EnvAccessPoint  = "LIBRESPOT_AP"
)

type Config struct {
	ClientID string `yaml:"client_id"`
	DeviceID string `yaml:"device_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// AccessPoint is host:port; empty means ask apresolve.
	AccessPoint string `yaml:"access_point"`
	ResolveURL  string `yaml:"resolve_url"`

	// FetchTimeout is in milliseconds.
	FetchTimeout int `yaml:"fetch_timeout"`

	// MaxQuality is nil until set; the client then picks high, or very
	// high for premium accounts.
	MaxQuality   *int     `yaml:"max_quality,omitempty"`
	Codec        string   `yaml:"codec"`
	CDNBlacklist []string `yaml:"cdn_blacklist"`
	Scopes       []string `yaml:"scopes"`

	Handshake Handshake `yaml:"handshake"`
}

type Handshake struct {
	Product      int   `yaml:"product"`
	ProductFlags []int `yaml:"product_flags"`
	Platform     int   `yaml:"platform"`
	Fingerprint  bool  `yaml:"fingerprint"`
}

// Default returns the built in settings with a fresh random device id.
func Default() Config {
	hs := ap.DefaultHandshakeOptions()
	flags := make([]int, len(hs.ProductFlags))
	for i, f := range hs.ProductFlags {
		flags[i] = int(f)
	}
	return Config{
		ClientID:     DefaultClientID,
		DeviceID:     RandomDeviceID(),
		FetchTimeout: DefaultFetchTimeout,
		Codec:        string(audio.CodecVorbis),
		CDNBlacklist: spclient.DefaultCDNBlacklist,
		Scopes:       spclient.DefaultScopes,
		Handshake: Handshake{
			Product:      int(hs.Product),
			ProductFlags: flags,
			Platform:     int(hs.Platform),
			Fingerprint:  hs.Fingerprint,
		},
	}
}

// RandomDeviceID returns 20 random bytes in hex.
func RandomDeviceID() string {
	b := make([]byte, 20)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Load reads path over the defaults, then applies the environment. An
// empty path skips the file. envFiles default to .env; missing env files
// are ignored.
func Load(path string, envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvFetchTimeout); v != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parsing %s=%q: %w", EnvFetchTimeout, v, err)
		}
		c.FetchTimeout = ms
	}
	for env, dst := range map[string]*string{
		EnvUsername:    &c.Username,
		EnvPassword:    &c.Password,
		EnvDeviceID:    &c.DeviceID,
		EnvAccessPoint: &c.AccessPoint,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	return nil
}

func (c Config) Validate() error {
	if c.ClientID == "" {
		return errors.New("config: client_id is empty")
	}
	if c.DeviceID == "" {
		return errors.New("config: device_id is empty")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("config: fetch_timeout must be positive, got %d", c.FetchTimeout)
	}
	if c.MaxQuality != nil && (*c.MaxQuality < int(audio.QualityNormal) || *c.MaxQuality > int(audio.QualityVeryHigh)) {
		return fmt.Errorf("config: max_quality must be 0, 1 or 2, got %d", *c.MaxQuality)
	}
	switch audio.Codec(c.Codec) {
	case audio.CodecVorbis, audio.CodecMP3, audio.CodecAAC:
	default:
		return fmt.Errorf("config: unknown codec %q", c.Codec)
	}
	return nil
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Millisecond
}

func (c Config) HandshakeOptions() ap.HandshakeOptions {
	hs := ap.DefaultHandshakeOptions()
	hs.Product = spotify.Product(c.Handshake.Product)
	hs.Platform = spotify.Platform(c.Handshake.Platform)
	hs.Fingerprint = c.Handshake.Fingerprint
	hs.ProductFlags = make([]spotify.ProductFlags, len(c.Handshake.ProductFlags))
	for i, f := range c.Handshake.ProductFlags {
		hs.ProductFlags[i] = spotify.ProductFlags(f)
	}
	return hs
}
