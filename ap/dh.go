package ap

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// dhPrime is the 768-bit MODP group of RFC 2409 (Oakley group 1).
var dhPrime, _ = new(big.Int).SetString(
	"ffffffffffffffffc90fdaa22168c234c4c6628b80dc1cd129024e088a67cc74"+
		"020bbea63b139b22514a08798e3404ddef9519b3cd3a431b302b0a6df25f1437"+
		"4fe1356d6d51c245e485b576625e7ec6f44c42e9a63a3620ffffffffffffffff", 16)

var dhGenerator = big.NewInt(2)

// dhKeySize is the byte length of the group's public values and secrets.
const dhKeySize = 96

// DHKeyPair is an ephemeral Diffie-Hellman key pair in the handshake group.
type DHKeyPair struct {
	private *big.Int
	public  *big.Int
}

// NewDHKeyPair generates a fresh key pair.
func NewDHKeyPair() (*DHKeyPair, error) {
	priv, err := rand.Int(rand.Reader, new(big.Int).Sub(dhPrime, big.NewInt(2)))
	if err != nil {
		return nil, fmt.Errorf("generating dh private key: %w", err)
	}
	priv.Add(priv, big.NewInt(1))
	return &DHKeyPair{
		private: priv,
		public:  new(big.Int).Exp(dhGenerator, priv, dhPrime),
	}, nil
}

// Public returns the public value, left-padded to 96 bytes.
func (k *DHKeyPair) Public() []byte {
	return k.public.FillBytes(make([]byte, dhKeySize))
}

// SharedSecret combines the peer's public value with our private key.
func (k *DHKeyPair) SharedSecret(peer []byte) ([]byte, error) {
	y := new(big.Int).SetBytes(peer)
	if y.Cmp(big.NewInt(1)) <= 0 || y.Cmp(new(big.Int).Sub(dhPrime, big.NewInt(1))) >= 0 {
		return nil, fmt.Errorf("invalid dh public value")
	}
	return new(big.Int).Exp(y, k.private, dhPrime).FillBytes(make([]byte, dhKeySize)), nil
}
