package ap

// Command opcodes carried in the first byte of every encrypted frame.
const (
	CmdPing         byte = 0x04
	CmdRequestKey   byte = 0x0c
	CmdAESKey       byte = 0x0d
	CmdAESKeyError  byte = 0x0e
	CmdCountryCode  byte = 0x1b
	CmdPong         byte = 0x49
	CmdPongAck      byte = 0x4a
	CmdProductInfo  byte = 0x50
	CmdLogin        byte = 0xab
	CmdAPWelcome    byte = 0xac
	CmdAuthFailure  byte = 0xad
	CmdMercuryReq   byte = 0xb2
	CmdMercurySub   byte = 0xb3
	CmdMercuryUnsub byte = 0xb4
	CmdMercuryEvent byte = 0xb5
)

// maxPayload is the largest payload a frame's 16 bit length can describe.
const maxPayload = 0xffff

// Packet is one decrypted frame.
type Packet struct {
	Cmd     byte
	Payload []byte
}
