// Package ap speaks the access point protocol: the Diffie-Hellman handshake,
// the Shannon encrypted channel, the encrypted login and the command
// dispatcher that correlates audio key and mercury replies.
package ap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"spotify-ap/proto/spotify"
	"spotify-ap/transport"
)

const versionString = "0.0.1"

type Options struct {
	Handshake HandshakeOptions
	DeviceID  string
	Logger    *log.Logger
}

// Session owns one access point connection and all of its protocol state.
type Session struct {
	tr      *transport.Transport
	channel *Channel
	hs      *handshake
	log     *log.Logger
	opts    Options

	mu         sync.RWMutex
	attributes map[string]string
	country    string
	welcome    *spotify.APWelcome

	keys    *audioKeys
	mercury *mercury

	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// Connect dials addr and performs the handshake. The returned session must
// be authenticated with Login before it can be used.
func Connect(ctx context.Context, addr string, opts Options) (*Session, error) {
	tr, err := transport.Dial(ctx, addr, opts.Logger)
	if err != nil {
		return nil, err
	}
	s, err := NewSession(ctx, tr, opts)
	if err != nil {
		tr.Close()
		return nil, err
	}
	return s, nil
}

// NewSession performs the handshake over an established transport.
func NewSession(ctx context.Context, tr *transport.Transport, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	hs, err := doHandshake(ctx, tr, opts.Handshake)
	if err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}
	opts.Logger.Printf("handshake completed")

	s := &Session{
		tr:         tr,
		channel:    hs.channel,
		hs:         hs,
		log:        opts.Logger,
		opts:       opts,
		attributes: make(map[string]string),
		keys:       newAudioKeys(),
		done:       make(chan struct{}),
	}
	s.mercury = newMercury(s)
	return s, nil
}

// Login sends the encrypted login and waits for the verdict. On success the
// dispatcher starts and the session is ready for use.
func (s *Session) Login(ctx context.Context, creds *spotify.LoginCredentials) (*spotify.APWelcome, error) {
	if s.channel == nil {
		return nil, ErrNotHandshaken
	}
	req := &spotify.ClientResponseEncrypted{
		LoginCredentials: creds,
		SystemInfo: &spotify.SystemInfo{
			CpuFamily:               spotify.CpuFamily_CPU_UNKNOWN,
			Os:                      spotify.Os_OS_UNKNOWN,
			SystemInformationString: "spotify_js",
			DeviceId:                s.opts.DeviceID,
		},
		VersionString: versionString,
	}
	if s.hs.grain != nil && s.hs.kek != nil {
		key, err := s.hs.grain.EncryptedKey(s.hs.hello, s.hs.response, s.hs.kek)
		if err != nil {
			return nil, fmt.Errorf("answering fingerprint challenge: %w", err)
		}
		req.FingerprintResponse = &spotify.FingerprintResponseUnion{
			Grain: &spotify.FingerprintGrainResponse{EncryptedKey: key},
		}
	}
	payload, err := spotify.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshalling login: %w", err)
	}
	if err := s.channel.Send(CmdLogin, payload); err != nil {
		return nil, fmt.Errorf("sending login: %w", err)
	}

	pkt, err := s.channel.Receive(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading login reply: %w", err)
	}
	switch pkt.Cmd {
	case CmdAPWelcome:
		var welcome spotify.APWelcome
		if err := spotify.Unmarshal(pkt.Payload, &welcome); err != nil {
			return nil, fmt.Errorf("unmarshalling ap welcome: %w", err)
		}
		s.mu.Lock()
		s.welcome = &welcome
		s.mu.Unlock()
		s.log.Printf("authenticated as %s", welcome.GetCanonicalUsername())
		go s.dispatch()
		return &welcome, nil
	case CmdAuthFailure:
		var failed spotify.APLoginFailed
		if err := spotify.Unmarshal(pkt.Payload, &failed); err != nil {
			return nil, fmt.Errorf("unmarshalling login failure: %w", err)
		}
		return nil, loginFailed(&failed)
	default:
		return nil, &LoginFailedError{Code: -1, Description: fmt.Sprintf("Unknown error (cmd 0x%02x)", pkt.Cmd)}
	}
}

// Send writes one command frame.
func (s *Session) Send(cmd byte, payload []byte) error {
	select {
	case <-s.done:
		return s.Err()
	default:
	}
	if err := s.channel.Send(cmd, payload); err != nil {
		if serr := s.Err(); serr != nil {
			return serr
		}
		return err
	}
	return nil
}

// Welcome returns the APWelcome of a successful login, or nil.
func (s *Session) Welcome() *spotify.APWelcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.welcome
}

// Done is closed when the session has ended.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err reports why the session ended, or nil while it is alive.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close ends the session. Outstanding audio key and mercury requests fail
// with ErrSessionClosed.
func (s *Session) Close() error {
	s.fail(ErrSessionClosed)
	return nil
}

func (s *Session) fail(cause error) {
	s.closeOnce.Do(func() {
		if !errors.Is(cause, ErrSessionClosed) {
			cause = fmt.Errorf("%w: %w", ErrSessionClosed, cause)
		}
		s.err = cause
		close(s.done)
		s.keys.failAll(cause)
		s.mercury.failAll(cause)
		s.tr.Close()
		s.log.Printf("session ended: %v", cause)
	})
}
