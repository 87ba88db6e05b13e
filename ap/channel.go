package ap

import (
	"context"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"sync"

	"spotify-ap/shannon"
	"spotify-ap/transport"
)

type cipherState struct {
	cipher *shannon.Shannon
	nonce  uint32
}

// prime feeds the current nonce to the cipher and advances it.
func (c *cipherState) prime() {
	c.cipher.NonceUint32(c.nonce)
	c.nonce++
}

// Channel frames payloads as cmd | len | payload | mac under two
// independently keyed Shannon states.
type Channel struct {
	tr *transport.Transport

	sendMu sync.Mutex
	send   cipherState

	recvMu sync.Mutex
	recv   cipherState
}

func NewChannel(tr *transport.Transport, sendKey, recvKey []byte) *Channel {
	return &Channel{
		tr:   tr,
		send: cipherState{cipher: shannon.New(sendKey)},
		recv: cipherState{cipher: shannon.New(recvKey)},
	}
}

// Send encrypts and writes one frame. It is safe for concurrent use.
func (c *Channel) Send(cmd byte, payload []byte) error {
	if len(payload) > maxPayload {
		return fmt.Errorf("payload of %d bytes exceeds frame limit", len(payload))
	}
	buf := make([]byte, 3, 3+len(payload)+4)
	buf[0] = cmd
	binary.BigEndian.PutUint16(buf[1:], uint16(len(payload)))
	buf = append(buf, payload...)

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	c.send.prime()
	c.send.cipher.Encrypt(buf)
	mac := make([]byte, 4)
	c.send.cipher.Finish(mac)
	return c.tr.Write(append(buf, mac...))
}

// Receive reads and authenticates one frame. ctx only bounds the wait for
// the first byte; once a frame has started it is read to the end.
func (c *Channel) Receive(ctx context.Context) (Packet, error) {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	cmd, err := c.tr.Read(ctx, 1, transport.Partial())
	if err != nil {
		return Packet{}, err
	}
	c.recv.prime()
	c.recv.cipher.Decrypt(cmd)

	rest := context.WithoutCancel(ctx)
	size, err := c.tr.Read(rest, 2, transport.Partial(), transport.Prioritized())
	if err != nil {
		return Packet{}, err
	}
	c.recv.cipher.Decrypt(size)

	payload, err := c.tr.Read(rest, int(binary.BigEndian.Uint16(size)), transport.Partial(), transport.Prioritized())
	if err != nil {
		return Packet{}, err
	}
	c.recv.cipher.Decrypt(payload)

	mac, err := c.tr.Read(rest, 4, transport.Prioritized())
	if err != nil {
		return Packet{}, err
	}
	expected := make([]byte, 4)
	c.recv.cipher.Finish(expected)
	if subtle.ConstantTimeCompare(expected, mac) != 1 {
		return Packet{}, ErrMACMismatch
	}
	return Packet{Cmd: cmd[0], Payload: payload}, nil
}
