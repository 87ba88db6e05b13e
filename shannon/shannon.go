// Package shannon implements the Shannon stream cipher with its built-in MAC,
// as used by the access point to protect both directions of a connection.
//
// A Shannon value is keyed once with New and re-primed with Nonce before every
// frame. Encrypt and Decrypt may be called several times per frame on
// consecutive slices; the keystream and MAC state carry over between calls.
package shannon

import (
	"encoding/binary"
	"math/bits"
)

const (
	n         = 16
	initKonst = 0x6996c53a
	keyP      = 13
)

// Shannon holds the state of one cipher direction. It is not safe for
// concurrent use.
type Shannon struct {
	r     [n]uint32
	crc   [n]uint32
	initR [n]uint32
	konst uint32
	sbuf  uint32
	mbuf  uint32
	nbuf  int
}

// New returns a cipher keyed with key.
func New(key []byte) *Shannon {
	s := &Shannon{}
	s.initState()
	s.loadKey(key)
	s.konst = s.r[0]
	s.initR = s.r
	return s
}

// Nonce restores the keyed state and folds in nonce.
func (s *Shannon) Nonce(nonce []byte) {
	s.r = s.initR
	s.konst = initKonst
	s.loadKey(nonce)
	s.konst = s.r[0]
	s.nbuf = 0
}

// NonceUint32 primes the cipher with the big-endian encoding of v.
func (s *Shannon) NonceUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.Nonce(b[:])
}

// Encrypt encrypts buf in place and accumulates the plaintext into the MAC.
func (s *Shannon) Encrypt(buf []byte) {
	i := 0
	if s.nbuf != 0 {
		for s.nbuf != 0 && i < len(buf) {
			s.mbuf ^= uint32(buf[i]) << (32 - s.nbuf)
			buf[i] ^= byte(s.sbuf >> (32 - s.nbuf))
			i++
			s.nbuf -= 8
		}
		if s.nbuf != 0 {
			return
		}
		s.macFunc(s.mbuf)
	}

	for ; i+4 <= len(buf); i += 4 {
		s.cycle()
		t := binary.LittleEndian.Uint32(buf[i:])
		s.macFunc(t)
		binary.LittleEndian.PutUint32(buf[i:], t^s.sbuf)
	}

	if i < len(buf) {
		s.cycle()
		s.mbuf = 0
		s.nbuf = 32
		for s.nbuf != 0 && i < len(buf) {
			s.mbuf ^= uint32(buf[i]) << (32 - s.nbuf)
			buf[i] ^= byte(s.sbuf >> (32 - s.nbuf))
			i++
			s.nbuf -= 8
		}
	}
}

// Decrypt decrypts buf in place and accumulates the recovered plaintext into
// the MAC.
func (s *Shannon) Decrypt(buf []byte) {
	i := 0
	if s.nbuf != 0 {
		for s.nbuf != 0 && i < len(buf) {
			buf[i] ^= byte(s.sbuf >> (32 - s.nbuf))
			s.mbuf ^= uint32(buf[i]) << (32 - s.nbuf)
			i++
			s.nbuf -= 8
		}
		if s.nbuf != 0 {
			return
		}
		s.macFunc(s.mbuf)
	}

	for ; i+4 <= len(buf); i += 4 {
		s.cycle()
		t := binary.LittleEndian.Uint32(buf[i:]) ^ s.sbuf
		s.macFunc(t)
		binary.LittleEndian.PutUint32(buf[i:], t)
	}

	if i < len(buf) {
		s.cycle()
		s.mbuf = 0
		s.nbuf = 32
		for s.nbuf != 0 && i < len(buf) {
			buf[i] ^= byte(s.sbuf >> (32 - s.nbuf))
			s.mbuf ^= uint32(buf[i]) << (32 - s.nbuf)
			i++
			s.nbuf -= 8
		}
	}
}

// Finish writes len(mac) bytes of MAC over everything processed since the
// last Nonce call.
func (s *Shannon) Finish(mac []byte) {
	if s.nbuf != 0 {
		s.macFunc(s.mbuf)
	}

	// Only the stream register is perturbed, the CRC is left alone.
	s.cycle()
	s.r[keyP] ^= initKonst ^ uint32(s.nbuf<<3)
	s.nbuf = 0

	for i := range s.r {
		s.r[i] ^= s.crc[i]
	}
	s.diffuse()

	for i := 0; i < len(mac); {
		s.cycle()
		if len(mac)-i >= 4 {
			binary.LittleEndian.PutUint32(mac[i:], s.sbuf)
			i += 4
			continue
		}
		for j := 0; i < len(mac); i, j = i+1, j+1 {
			mac[i] = byte(s.sbuf >> (8 * j))
		}
	}
}

func sbox1(w uint32) uint32 {
	w ^= bits.RotateLeft32(w, 5) | bits.RotateLeft32(w, 7)
	w ^= bits.RotateLeft32(w, 19) | bits.RotateLeft32(w, 22)
	return w
}

func sbox2(w uint32) uint32 {
	w ^= bits.RotateLeft32(w, 7) | bits.RotateLeft32(w, 22)
	w ^= bits.RotateLeft32(w, 5) | bits.RotateLeft32(w, 19)
	return w
}

func (s *Shannon) cycle() {
	t := s.r[12] ^ s.r[13] ^ s.konst
	t = sbox1(t) ^ bits.RotateLeft32(s.r[0], 1)
	copy(s.r[:], s.r[1:])
	s.r[n-1] = t
	t = sbox2(s.r[2] ^ s.r[15])
	s.r[0] ^= t
	s.sbuf = t ^ s.r[8] ^ s.r[12]
}

func (s *Shannon) crcFunc(i uint32) {
	t := s.crc[0] ^ s.crc[2] ^ s.crc[15] ^ i
	copy(s.crc[:], s.crc[1:])
	s.crc[n-1] = t
}

func (s *Shannon) macFunc(i uint32) {
	s.crcFunc(i)
	s.r[keyP] ^= i
}

// initState loads the register with Fibonacci numbers.
func (s *Shannon) initState() {
	s.r[0] = 1
	s.r[1] = 1
	for i := 2; i < n; i++ {
		s.r[i] = s.r[i-1] + s.r[i-2]
	}
	s.konst = initKonst
}

func (s *Shannon) diffuse() {
	for i := 0; i < n; i++ {
		s.cycle()
	}
}

func (s *Shannon) loadKey(key []byte) {
	i := 0
	for ; i+4 <= len(key); i += 4 {
		s.r[keyP] ^= binary.LittleEndian.Uint32(key[i:])
		s.cycle()
	}
	if i < len(key) {
		var xtra [4]byte
		copy(xtra[:], key[i:])
		s.r[keyP] ^= binary.LittleEndian.Uint32(xtra[:])
		s.cycle()
	}

	s.r[keyP] ^= uint32(len(key))
	s.cycle()

	s.crc = s.r
	s.diffuse()

	// Irreversible: xor the pre-diffusion copy back in.
	for i := range s.r {
		s.r[i] ^= s.crc[i]
	}
}
