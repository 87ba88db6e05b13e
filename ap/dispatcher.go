package ap

import (
	"context"
)

// dispatch owns the receive side of the channel for the lifetime of the
// session. It ends when the transport fails or the session is closed.
func (s *Session) dispatch() {
	ctx := context.Background()
	for {
		pkt, err := s.channel.Receive(ctx)
		if err != nil {
			s.fail(err)
			return
		}
		if err := s.handle(pkt); err != nil {
			s.fail(err)
			return
		}
	}
}

func (s *Session) handle(pkt Packet) error {
	switch pkt.Cmd {
	case CmdPing:
		s.log.Printf("ping received")
		return s.channel.Send(CmdPong, pkt.Payload)
	case CmdPongAck:
	case CmdCountryCode:
		s.mu.Lock()
		s.country = string(pkt.Payload)
		s.mu.Unlock()
		s.log.Printf("country: %s", pkt.Payload)
	case CmdProductInfo:
		attrs, err := parseProductInfo(pkt.Payload)
		if err != nil {
			s.log.Printf("ignoring product info: %v", err)
			return nil
		}
		s.mu.Lock()
		for k, v := range attrs {
			s.attributes[k] = v
		}
		s.mu.Unlock()
		s.log.Printf("product info: %d attributes", len(attrs))
	case CmdAESKey, CmdAESKeyError:
		s.keys.handle(s.log, pkt)
	case CmdMercuryReq, CmdMercurySub, CmdMercuryUnsub, CmdMercuryEvent:
		s.mercury.handle(pkt)
	default:
		s.log.Printf("ignoring command 0x%02x (%d bytes)", pkt.Cmd, len(pkt.Payload))
	}
	return nil
}
