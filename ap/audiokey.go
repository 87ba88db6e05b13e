package ap

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
)

type audioKeyResult struct {
	key []byte
	err error
}

// audioKeys correlates audio key replies with their requests by sequence
// number.
type audioKeys struct {
	mu      sync.Mutex
	seq     uint32
	pending map[uint32]chan audioKeyResult
	err     error
}

func newAudioKeys() *audioKeys {
	return &audioKeys{pending: make(map[uint32]chan audioKeyResult)}
}

func (a *audioKeys) register() (uint32, chan audioKeyResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return 0, nil, a.err
	}
	seq := a.seq
	a.seq++
	ch := make(chan audioKeyResult, 1)
	a.pending[seq] = ch
	return seq, ch, nil
}

func (a *audioKeys) unregister(seq uint32) {
	a.mu.Lock()
	delete(a.pending, seq)
	a.mu.Unlock()
}

func (a *audioKeys) handle(logger *log.Logger, pkt Packet) {
	if len(pkt.Payload) < 4 {
		logger.Printf("short audio key reply (%d bytes)", len(pkt.Payload))
		return
	}
	seq := binary.BigEndian.Uint32(pkt.Payload)

	a.mu.Lock()
	ch, ok := a.pending[seq]
	delete(a.pending, seq)
	a.mu.Unlock()
	if !ok {
		logger.Printf("audio key reply for unknown sequence %d", seq)
		return
	}

	if pkt.Cmd == CmdAESKey {
		ch <- audioKeyResult{key: pkt.Payload[4:]}
		return
	}
	var code uint16
	if len(pkt.Payload) >= 6 {
		code = binary.BigEndian.Uint16(pkt.Payload[4:6])
	}
	logger.Printf("audio key error 0x%04x for sequence %d", code, seq)
	ch <- audioKeyResult{err: &AudioKeyError{Code: code}}
}

func (a *audioKeys) failAll(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
	for seq, ch := range a.pending {
		ch <- audioKeyResult{err: err}
		delete(a.pending, seq)
	}
}

// AudioKeyRequest builds the request payload: file id, gid, sequence and two
// zero bytes.
func AudioKeyRequest(fileID, gid string, seq uint32) ([]byte, error) {
	file, err := hex.DecodeString(fileID)
	if err != nil {
		return nil, fmt.Errorf("decoding file id: %w", err)
	}
	id, err := hex.DecodeString(gid)
	if err != nil {
		return nil, fmt.Errorf("decoding gid: %w", err)
	}
	buf := make([]byte, 0, len(file)+len(id)+6)
	buf = append(buf, file...)
	buf = append(buf, id...)
	buf = binary.BigEndian.AppendUint32(buf, seq)
	return append(buf, 0, 0), nil
}

// AudioKey asks the access point for the decryption key of a file. The wait
// is bounded only by ctx; abandoning it unregisters the request.
func (s *Session) AudioKey(ctx context.Context, fileID, gid string) ([]byte, error) {
	seq, ch, err := s.keys.register()
	if err != nil {
		return nil, err
	}
	req, err := AudioKeyRequest(fileID, gid, seq)
	if err != nil {
		s.keys.unregister(seq)
		return nil, err
	}
	if err := s.Send(CmdRequestKey, req); err != nil {
		s.keys.unregister(seq)
		return nil, fmt.Errorf("sending audio key request: %w", err)
	}

	select {
	case res := <-ch:
		return res.key, res.err
	case <-ctx.Done():
		s.keys.unregister(seq)
		return nil, ctx.Err()
	}
}
