package ap

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/binary"
	"fmt"

	"spotify-ap/fingerprint"
	"spotify-ap/proto/spotify"
	"spotify-ap/transport"
)

// HandshakeOptions are the build identifiers announced in ClientHello.
type HandshakeOptions struct {
	Product      spotify.Product
	ProductFlags []spotify.ProductFlags
	Platform     spotify.Platform
	Version      uint64
	// Fingerprint advertises the grain fingerprint and answers its
	// challenge during login.
	Fingerprint bool
}

func DefaultHandshakeOptions() HandshakeOptions {
	return HandshakeOptions{
		Product:      spotify.Product_PRODUCT_PARTNER,
		ProductFlags: []spotify.ProductFlags{spotify.ProductFlags_PRODUCT_FLAG_NONE},
		Platform:     spotify.Platform_PLATFORM_LINUX_X86,
		Version:      0x10800000000,
		Fingerprint:  true,
	}
}

// Keys is the key material derived from a handshake.
type Keys struct {
	Challenge []byte
	Send      []byte
	Recv      []byte
}

// DeriveKeys expands the shared secret over the framed hello and response
// packets. The result is a pure function of its inputs.
func DeriveKeys(sharedSecret, clientPacket, serverPacket []byte) Keys {
	packets := make([]byte, 0, len(clientPacket)+len(serverPacket))
	packets = append(packets, clientPacket...)
	packets = append(packets, serverPacket...)

	acc := make([]byte, 0, 5*sha1.Size)
	for i := byte(1); i <= 5; i++ {
		mac := hmac.New(sha1.New, sharedSecret)
		mac.Write(packets)
		mac.Write([]byte{i})
		acc = mac.Sum(acc)
	}

	challenge := hmac.New(sha1.New, acc[:20])
	challenge.Write(packets)

	return Keys{
		Challenge: challenge.Sum(nil),
		Send:      acc[20:52],
		Recv:      acc[52:84],
	}
}

// handshake is what survives a completed key exchange.
type handshake struct {
	channel *Channel
	grain   *fingerprint.Grain
	// hello and response are the encoded messages without framing, used to
	// answer the fingerprint challenge.
	hello    []byte
	response []byte
	kek      []byte
}

func doHandshake(ctx context.Context, tr *transport.Transport, opts HandshakeOptions) (*handshake, error) {
	keyPair, err := NewDHKeyPair()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, 16)
	var grain *fingerprint.Grain
	var fingerprints []spotify.Fingerprint
	if opts.Fingerprint {
		grain, err = fingerprint.NewGrain()
		if err != nil {
			return nil, fmt.Errorf("creating fingerprint: %w", err)
		}
		nonce = grain.ClientNonce
		fingerprints = []spotify.Fingerprint{spotify.Fingerprint_FINGERPRINT_GRAIN}
	} else if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating client nonce: %w", err)
	}

	hello := &spotify.ClientHello{
		BuildInfo: &spotify.BuildInfo{
			Product:      opts.Product,
			ProductFlags: opts.ProductFlags,
			Platform:     opts.Platform,
			Version:      opts.Version,
		},
		FingerprintsSupported: fingerprints,
		CryptosuitesSupported: []spotify.Cryptosuite{spotify.Cryptosuite_CRYPTO_SUITE_SHANNON},
		LoginCryptoHello: &spotify.LoginCryptoHelloUnion{
			DiffieHellman: &spotify.LoginCryptoDiffieHellmanHello{Gc: keyPair.Public(), ServerKeysKnown: 1},
		},
		ClientNonce: nonce,
		Padding:     []byte{0x1e},
	}
	helloBytes, err := spotify.Marshal(hello)
	if err != nil {
		return nil, fmt.Errorf("marshalling client hello: %w", err)
	}

	clientPacket := make([]byte, 6, 6+len(helloBytes))
	clientPacket[1] = 0x04
	binary.BigEndian.PutUint32(clientPacket[2:], uint32(6+len(helloBytes)))
	clientPacket = append(clientPacket, helloBytes...)
	if err := tr.Write(clientPacket); err != nil {
		return nil, fmt.Errorf("sending client hello: %w", err)
	}

	serverPacket, err := ReadHandshakePacket(ctx, tr)
	if err != nil {
		return nil, fmt.Errorf("reading ap response: %w", err)
	}
	var resp spotify.APResponseMessage
	if err := spotify.Unmarshal(serverPacket[4:], &resp); err != nil {
		return nil, fmt.Errorf("unmarshalling ap response: %w", err)
	}
	if failed := resp.GetLoginFailed(); failed != nil {
		return nil, loginFailed(failed)
	}
	gs := resp.GetChallenge().GetLoginCryptoChallenge().GetDiffieHellman().GetGs()
	if gs == nil {
		return nil, fmt.Errorf("ap response carries no diffie-hellman challenge")
	}

	shared, err := keyPair.SharedSecret(gs)
	if err != nil {
		return nil, fmt.Errorf("computing shared secret: %w", err)
	}
	keys := DeriveKeys(shared, clientPacket, serverPacket)

	plaintext, err := spotify.Marshal(&spotify.ClientResponsePlaintext{
		LoginCryptoResponse: &spotify.LoginCryptoResponseUnion{
			DiffieHellman: &spotify.LoginCryptoDiffieHellmanResponse{Hmac: keys.Challenge},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling client response: %w", err)
	}
	if err := tr.Write(WithLength(plaintext)); err != nil {
		return nil, fmt.Errorf("sending client response: %w", err)
	}

	return &handshake{
		channel:  NewChannel(tr, keys.Send, keys.Recv),
		grain:    grain,
		hello:    helloBytes,
		response: serverPacket[4:],
		kek:      resp.GetChallenge().GetFingerprintChallenge().GetGrain().GetKek(),
	}, nil
}

// ReadHandshakePacket reads one length-prefixed handshake message and returns
// it with its 4 byte length.
func ReadHandshakePacket(ctx context.Context, tr *transport.Transport) ([]byte, error) {
	header, err := tr.Read(ctx, 4, transport.Partial())
	if err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header)
	if size < 4 || size > 1<<20 {
		return nil, fmt.Errorf("invalid handshake packet length %d", size)
	}
	body, err := tr.Read(ctx, int(size)-4, transport.Prioritized())
	if err != nil {
		return nil, err
	}
	return append(header, body...), nil
}

// WithLength prefixes msg with its total big-endian length including the
// four length bytes.
func WithLength(msg []byte) []byte {
	out := make([]byte, 4, 4+len(msg))
	binary.BigEndian.PutUint32(out, uint32(4+len(msg)))
	return append(out, msg...)
}
