package ap

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"spotify-ap/proto/spotify"
)

// Mercury frame flag bits. A frame without MercuryFinal is followed by more
// frames for the same sequence. MercuryPartial means its last part continues
// in the next frame and is ignored on a final frame.
const (
	MercuryFinal   byte = 0x01
	MercuryPartial byte = 0x02
)

// MercuryRequest is a request multiplexed over the encrypted channel.
// Method is GET, SEND, SUB or UNSUB.
type MercuryRequest struct {
	Method      string
	URI         string
	ContentType string
	Payload     [][]byte
}

// MercuryResponse is a completed reply or server push.
type MercuryResponse struct {
	Header  *spotify.Header
	Payload [][]byte
}

func (r *MercuryResponse) URI() string {
	return r.Header.GetUri()
}

func (r *MercuryResponse) StatusCode() int32 {
	return r.Header.GetStatusCode()
}

// MercuryFrame is the payload of one mercury command frame:
// u16 seq length | seq | u8 flags | u16 part count | (u16 length | part)*.
type MercuryFrame struct {
	Seq   uint64
	Flags byte
	Parts [][]byte
}

func EncodeMercuryFrame(f MercuryFrame) []byte {
	buf := binary.BigEndian.AppendUint16(nil, 8)
	buf = binary.BigEndian.AppendUint64(buf, f.Seq)
	buf = append(buf, f.Flags)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(f.Parts)))
	for _, p := range f.Parts {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(p)))
		buf = append(buf, p...)
	}
	return buf
}

var errShortMercuryFrame = errors.New("short mercury frame")

func DecodeMercuryFrame(b []byte) (MercuryFrame, error) {
	var f MercuryFrame
	if len(b) < 2 {
		return f, errShortMercuryFrame
	}
	seqLen := int(binary.BigEndian.Uint16(b))
	b = b[2:]
	if len(b) < seqLen+3 {
		return f, errShortMercuryFrame
	}
	for _, c := range b[:seqLen] {
		f.Seq = f.Seq<<8 | uint64(c)
	}
	b = b[seqLen:]
	f.Flags = b[0]
	count := int(binary.BigEndian.Uint16(b[1:]))
	b = b[3:]
	f.Parts = make([][]byte, 0, min(count, len(b)/2))
	for i := 0; i < count; i++ {
		if len(b) < 2 {
			return f, errShortMercuryFrame
		}
		n := int(binary.BigEndian.Uint16(b))
		b = b[2:]
		if len(b) < n {
			return f, errShortMercuryFrame
		}
		f.Parts = append(f.Parts, b[:n])
		b = b[n:]
	}
	return f, nil
}

type mercuryResult struct {
	resp *MercuryResponse
	err  error
}

// pendingMercury reassembles one message that may span several frames.
type pendingMercury struct {
	parts   [][]byte
	partial []byte
	ch      chan mercuryResult
}

func (p *pendingMercury) add(f MercuryFrame) {
	for i, part := range f.Parts {
		if p.partial != nil {
			part = append(p.partial, part...)
			p.partial = nil
		}
		if i == len(f.Parts)-1 && f.Flags&MercuryPartial != 0 && f.Flags&MercuryFinal == 0 {
			p.partial = append([]byte(nil), part...)
			continue
		}
		p.parts = append(p.parts, part)
	}
}

type subscription struct {
	prefix string
	ch     chan *MercuryResponse
}

type mercury struct {
	s *Session

	mu      sync.Mutex
	seq     uint64
	pending map[uint64]*pendingMercury
	events  map[uint64]*pendingMercury
	subs    []*subscription
	err     error
}

func newMercury(s *Session) *mercury {
	return &mercury{
		s:       s,
		pending: make(map[uint64]*pendingMercury),
		events:  make(map[uint64]*pendingMercury),
	}
}

func (m *mercury) handle(pkt Packet) {
	f, err := DecodeMercuryFrame(pkt.Payload)
	if err != nil {
		m.s.log.Printf("dropping mercury frame: %v", err)
		return
	}

	m.mu.Lock()
	table := m.pending
	if pkt.Cmd == CmdMercuryEvent {
		table = m.events
	}
	p, ok := table[f.Seq]
	if !ok {
		if pkt.Cmd != CmdMercuryEvent {
			m.mu.Unlock()
			m.s.log.Printf("mercury reply for unknown sequence %d", f.Seq)
			return
		}
		p = &pendingMercury{}
		table[f.Seq] = p
	}
	p.add(f)
	if f.Flags&MercuryFinal == 0 {
		m.mu.Unlock()
		return
	}
	delete(table, f.Seq)
	m.mu.Unlock()

	resp, err := buildMercuryResponse(p.parts)
	if p.ch != nil {
		if err == nil && resp.StatusCode() >= 400 {
			err = &MercuryStatusError{URI: resp.URI(), StatusCode: resp.StatusCode()}
		}
		p.ch <- mercuryResult{resp: resp, err: err}
		return
	}
	if err != nil {
		m.s.log.Printf("dropping mercury event: %v", err)
		return
	}
	m.publish(resp)
}

// publish hands a push to every subscriber whose prefix matches. Slow
// subscribers lose events rather than stall the dispatcher.
func (m *mercury) publish(resp *MercuryResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delivered := false
	for _, sub := range m.subs {
		if !strings.HasPrefix(resp.URI(), sub.prefix) {
			continue
		}
		delivered = true
		select {
		case sub.ch <- resp:
		default:
			m.s.log.Printf("subscriber for %s is full, dropping event", sub.prefix)
		}
	}
	if !delivered {
		m.s.log.Printf("mercury event for %s has no subscriber", resp.URI())
	}
}

func buildMercuryResponse(parts [][]byte) (*MercuryResponse, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("mercury message without header")
	}
	var header spotify.Header
	if err := spotify.Unmarshal(parts[0], &header); err != nil {
		return nil, fmt.Errorf("unmarshalling mercury header: %w", err)
	}
	return &MercuryResponse{Header: &header, Payload: parts[1:]}, nil
}

func (m *mercury) failAll(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	for seq, p := range m.pending {
		p.ch <- mercuryResult{err: err}
		delete(m.pending, seq)
	}
	for _, sub := range m.subs {
		close(sub.ch)
	}
	m.subs = nil
}

func (m *mercury) register() (uint64, chan mercuryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, nil, m.err
	}
	seq := m.seq
	m.seq++
	ch := make(chan mercuryResult, 1)
	m.pending[seq] = &pendingMercury{ch: ch}
	return seq, ch, nil
}

func (m *mercury) unregister(seq uint64) {
	m.mu.Lock()
	delete(m.pending, seq)
	m.mu.Unlock()
}

// drop removes sub and closes its channel unless that already happened.
func (m *mercury) drop(sub *subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, x := range m.subs {
		if x == sub {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

func mercuryCmd(method string) byte {
	switch method {
	case "SUB":
		return CmdMercurySub
	case "UNSUB":
		return CmdMercuryUnsub
	default:
		return CmdMercuryReq
	}
}

// Mercury sends a request and waits for the complete reply.
func (s *Session) Mercury(ctx context.Context, req MercuryRequest) (*MercuryResponse, error) {
	header, err := spotify.Marshal(&spotify.Header{
		Uri:         req.URI,
		ContentType: req.ContentType,
		Method:      req.Method,
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling mercury header: %w", err)
	}

	seq, ch, err := s.mercury.register()
	if err != nil {
		return nil, err
	}
	frame := EncodeMercuryFrame(MercuryFrame{
		Seq:   seq,
		Flags: MercuryFinal,
		Parts: append([][]byte{header}, req.Payload...),
	})
	if err := s.Send(mercuryCmd(req.Method), frame); err != nil {
		s.mercury.unregister(seq)
		return nil, fmt.Errorf("sending mercury %s %s: %w", req.Method, req.URI, err)
	}

	select {
	case res := <-ch:
		return res.resp, res.err
	case <-ctx.Done():
		s.mercury.unregister(seq)
		return nil, ctx.Err()
	}
}

// Subscribe registers interest in pushes whose URI starts with uri. The
// returned channel is closed when the session ends or on Unsubscribe.
func (s *Session) Subscribe(ctx context.Context, uri string) (<-chan *MercuryResponse, error) {
	// Registered before SUB goes out so pushes racing the reply are kept.
	sub := &subscription{prefix: uri, ch: make(chan *MercuryResponse, 16)}
	s.mercury.mu.Lock()
	if s.mercury.err != nil {
		err := s.mercury.err
		s.mercury.mu.Unlock()
		return nil, err
	}
	s.mercury.subs = append(s.mercury.subs, sub)
	s.mercury.mu.Unlock()

	if _, err := s.Mercury(ctx, MercuryRequest{Method: "SUB", URI: uri}); err != nil {
		s.mercury.drop(sub)
		return nil, err
	}
	return sub.ch, nil
}

// Unsubscribe drops every subscription registered for uri.
func (s *Session) Unsubscribe(ctx context.Context, uri string) error {
	s.mercury.mu.Lock()
	kept := s.mercury.subs[:0]
	for _, sub := range s.mercury.subs {
		if sub.prefix == uri {
			close(sub.ch)
			continue
		}
		kept = append(kept, sub)
	}
	s.mercury.subs = kept
	s.mercury.mu.Unlock()

	_, err := s.Mercury(ctx, MercuryRequest{Method: "UNSUB", URI: uri})
	return err
}
