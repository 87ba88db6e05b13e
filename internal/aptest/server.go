// Package aptest runs an in-process access point for tests. It performs the
// server side of the handshake, verifies the grain fingerprint answer and
// serves audio keys and mercury requests over the encrypted channel.
package aptest

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"sync/atomic"

	"spotify-ap/ap"
	"spotify-ap/fingerprint"
	"spotify-ap/proto/spotify"
	"spotify-ap/transport"
)

// FileIDSize is the raw length of a file id in audio key requests.
const FileIDSize = 20

// MercuryHandler answers a mercury request with a status and payload parts.
type MercuryHandler func(header *spotify.Header, payload [][]byte) (int32, [][]byte)

type Server struct {
	Username         string
	Password         string
	StoredCredential []byte
	Country          string
	Attributes       map[string]string

	// AudioKeys maps hex file ids to keys. Requests for files in
	// AudioKeyErrors get an error frame, anything else is left unanswered.
	AudioKeys      map[string][]byte
	AudioKeyErrors map[string]uint16

	Mercury MercuryHandler
	// MercuryChunk splits reply parts into frames of at most this many
	// bytes when positive.
	MercuryChunk int

	// RejectHandshake makes the server answer the hello with a login
	// failure.
	RejectHandshake *spotify.APLoginFailed
	// NoFingerprint omits the grain challenge.
	NoFingerprint bool

	channel  *ap.Channel
	ready    chan struct{}
	pongs    chan []byte
	verified atomic.Bool
	pushSeq  atomic.Uint64
	initOnce sync.Once
}

func (s *Server) init() {
	s.initOnce.Do(func() {
		s.ready = make(chan struct{})
		s.pongs = make(chan []byte, 16)
	})
}

// Ready is closed once a client has logged in.
func (s *Server) Ready() <-chan struct{} {
	s.init()
	return s.ready
}

// Pongs delivers the payload of every pong the client sends.
func (s *Server) Pongs() <-chan []byte {
	s.init()
	return s.pongs
}

// FingerprintVerified reports whether the client answered the grain
// challenge correctly.
func (s *Server) FingerprintVerified() bool {
	return s.verified.Load()
}

// Send writes a raw command to the logged in client.
func (s *Server) Send(cmd byte, payload []byte) error {
	<-s.Ready()
	return s.channel.Send(cmd, payload)
}

func (s *Server) Ping(payload []byte) error {
	return s.Send(ap.CmdPing, payload)
}

// Push sends a mercury event for uri.
func (s *Server) Push(uri string, payload ...[]byte) error {
	header, err := spotify.Marshal(&spotify.Header{Uri: uri, Method: "PUT"})
	if err != nil {
		return err
	}
	frame := ap.EncodeMercuryFrame(ap.MercuryFrame{
		Seq:   s.pushSeq.Add(1),
		Flags: ap.MercuryFinal,
		Parts: append([][]byte{header}, payload...),
	})
	return s.Send(ap.CmdMercuryEvent, frame)
}

// Serve runs the access point on conn until the client goes away.
func (s *Server) Serve(conn net.Conn) error {
	s.init()
	ctx := context.Background()
	tr := transport.New(conn, nil)
	defer tr.Close()

	hello, helloBytes, clientPacket, err := readHello(ctx, tr)
	if err != nil {
		return err
	}

	if s.RejectHandshake != nil {
		resp, err := spotify.Marshal(&spotify.APResponseMessage{LoginFailed: s.RejectHandshake})
		if err != nil {
			return err
		}
		return tr.Write(ap.WithLength(resp))
	}

	keyPair, err := ap.NewDHKeyPair()
	if err != nil {
		return err
	}
	challenge := &spotify.APChallenge{
		LoginCryptoChallenge: &spotify.LoginCryptoChallengeUnion{
			DiffieHellman: &spotify.LoginCryptoDiffieHellmanChallenge{
				Gs:                 keyPair.Public(),
				ServerSignatureKey: 1,
				GsSignature:        make([]byte, 256),
			},
		},
		ServerNonce: randomBytes(16),
	}
	var kek []byte
	if !s.NoFingerprint {
		kek = randomBytes(16)
		challenge.FingerprintChallenge = &spotify.FingerprintChallengeUnion{
			Grain: &spotify.FingerprintGrainChallenge{Kek: kek},
		}
	}
	respBytes, err := spotify.Marshal(&spotify.APResponseMessage{Challenge: challenge})
	if err != nil {
		return err
	}
	serverPacket := ap.WithLength(respBytes)
	if err := tr.Write(serverPacket); err != nil {
		return err
	}

	shared, err := keyPair.SharedSecret(hello.GetLoginCryptoHello().GetDiffieHellman().GetGc())
	if err != nil {
		return err
	}
	keys := ap.DeriveKeys(shared, clientPacket, serverPacket)

	packet, err := ap.ReadHandshakePacket(ctx, tr)
	if err != nil {
		return fmt.Errorf("reading client response: %w", err)
	}
	var plain spotify.ClientResponsePlaintext
	if err := spotify.Unmarshal(packet[4:], &plain); err != nil {
		return err
	}
	if !hmac.Equal(plain.GetLoginCryptoResponse().GetDiffieHellman().GetHmac(), keys.Challenge) {
		return errors.New("client challenge hmac mismatch")
	}

	// The server sends with the client's receive key.
	s.channel = ap.NewChannel(tr, keys.Recv, keys.Send)

	if err := s.login(ctx, hello, helloBytes, respBytes, kek); err != nil {
		return err
	}
	close(s.ready)
	return s.loop(ctx)
}

func readHello(ctx context.Context, tr *transport.Transport) (*spotify.ClientHello, []byte, []byte, error) {
	header, err := tr.Read(ctx, 6)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading hello header: %w", err)
	}
	if header[0] != 0x00 || header[1] != 0x04 {
		return nil, nil, nil, fmt.Errorf("unexpected hello prefix %x", header[:2])
	}
	body, err := tr.Read(ctx, int(binary.BigEndian.Uint32(header[2:]))-6)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading hello: %w", err)
	}
	var hello spotify.ClientHello
	if err := spotify.Unmarshal(body, &hello); err != nil {
		return nil, nil, nil, err
	}
	return &hello, body, append(header, body...), nil
}

func (s *Server) login(ctx context.Context, hello *spotify.ClientHello, helloBytes, respBytes, kek []byte) error {
	pkt, err := s.channel.Receive(ctx)
	if err != nil {
		return err
	}
	if pkt.Cmd != ap.CmdLogin {
		return fmt.Errorf("expected login, got 0x%02x", pkt.Cmd)
	}
	var req spotify.ClientResponseEncrypted
	if err := spotify.Unmarshal(pkt.Payload, &req); err != nil {
		return err
	}

	if kek != nil {
		encryptedKey := req.GetFingerprintResponse().GetGrain().GetEncryptedKey()
		if _, err := fingerprint.DecryptKey(helloBytes, respBytes, kek, hello.GetClientNonce(), encryptedKey); err != nil {
			return s.reject(spotify.ErrorCode_ProtocolError, err)
		}
		s.verified.Store(true)
	}

	creds := req.GetLoginCredentials()
	ok := creds.GetUsername() == s.Username
	switch creds.Typ {
	case spotify.AuthenticationType_AUTHENTICATION_USER_PASS:
		ok = ok && string(creds.GetAuthData()) == s.Password
	case spotify.AuthenticationType_AUTHENTICATION_STORED_SPOTIFY_CREDENTIALS:
		ok = ok && s.StoredCredential != nil && bytes.Equal(creds.GetAuthData(), s.StoredCredential)
	default:
		ok = false
	}
	if !ok {
		return s.reject(spotify.ErrorCode_BadCredentials, errors.New("bad credentials"))
	}

	welcome, err := spotify.Marshal(&spotify.APWelcome{
		CanonicalUsername:           s.Username,
		ReusableAuthCredentialsType: spotify.AuthenticationType_AUTHENTICATION_STORED_SPOTIFY_CREDENTIALS,
		ReusableAuthCredentials:     s.StoredCredential,
	})
	if err != nil {
		return err
	}
	if err := s.channel.Send(ap.CmdAPWelcome, welcome); err != nil {
		return err
	}
	if s.Country != "" {
		if err := s.channel.Send(ap.CmdCountryCode, []byte(s.Country)); err != nil {
			return err
		}
	}
	if s.Attributes != nil {
		return s.channel.Send(ap.CmdProductInfo, productInfo(s.Attributes))
	}
	return nil
}

func (s *Server) reject(code spotify.ErrorCode, cause error) error {
	failed, err := spotify.Marshal(&spotify.APLoginFailed{ErrorCode: code})
	if err != nil {
		return err
	}
	if err := s.channel.Send(ap.CmdAuthFailure, failed); err != nil {
		return err
	}
	return cause
}

func productInfo(attrs map[string]string) []byte {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b bytes.Buffer
	b.WriteString("<products><product>")
	for _, k := range keys {
		fmt.Fprintf(&b, "<%s>%s</%s>", k, attrs[k], k)
	}
	b.WriteString("</product></products>")
	return b.Bytes()
}

func (s *Server) loop(ctx context.Context) error {
	for {
		pkt, err := s.channel.Receive(ctx)
		if err != nil {
			return err
		}
		switch pkt.Cmd {
		case ap.CmdPong:
			select {
			case s.pongs <- pkt.Payload:
			default:
			}
		case ap.CmdRequestKey:
			err = s.audioKey(pkt.Payload)
		case ap.CmdMercuryReq, ap.CmdMercurySub, ap.CmdMercuryUnsub:
			err = s.mercury(pkt)
		}
		if err != nil {
			return err
		}
	}
}

func (s *Server) audioKey(payload []byte) error {
	if len(payload) < FileIDSize+6 {
		return fmt.Errorf("short audio key request")
	}
	fileID := hex.EncodeToString(payload[:FileIDSize])
	seq := payload[len(payload)-6 : len(payload)-2]

	if key, ok := s.AudioKeys[fileID]; ok {
		return s.channel.Send(ap.CmdAESKey, append(bytes.Clone(seq), key...))
	}
	if code, ok := s.AudioKeyErrors[fileID]; ok {
		return s.channel.Send(ap.CmdAESKeyError, binary.BigEndian.AppendUint16(bytes.Clone(seq), code))
	}
	return nil
}

func (s *Server) mercury(pkt ap.Packet) error {
	frame, err := ap.DecodeMercuryFrame(pkt.Payload)
	if err != nil {
		return err
	}
	var header spotify.Header
	if len(frame.Parts) > 0 {
		if err := spotify.Unmarshal(frame.Parts[0], &header); err != nil {
			return err
		}
	}
	if s.Mercury == nil {
		return nil
	}
	status, payload := s.Mercury(&header, frame.Parts[1:])
	if status == 0 {
		// no reply
		return nil
	}
	respHeader, err := spotify.Marshal(&spotify.Header{Uri: header.Uri, StatusCode: status})
	if err != nil {
		return err
	}
	parts := append([][]byte{respHeader}, payload...)

	if s.MercuryChunk <= 0 {
		return s.channel.Send(pkt.Cmd, ap.EncodeMercuryFrame(ap.MercuryFrame{Seq: frame.Seq, Flags: ap.MercuryFinal, Parts: parts}))
	}
	for i, part := range parts {
		chunks := split(part, s.MercuryChunk)
		for j, chunk := range chunks {
			var flags byte
			switch {
			case j < len(chunks)-1:
				flags = ap.MercuryPartial
			case i == len(parts)-1:
				flags = ap.MercuryFinal
			}
			f := ap.MercuryFrame{Seq: frame.Seq, Flags: flags, Parts: [][]byte{chunk}}
			if err := s.channel.Send(pkt.Cmd, ap.EncodeMercuryFrame(f)); err != nil {
				return err
			}
		}
	}
	return nil
}

func split(b []byte, n int) [][]byte {
	var chunks [][]byte
	for len(b) > n {
		chunks = append(chunks, b[:n])
		b = b[n:]
	}
	return append(chunks, b)
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
