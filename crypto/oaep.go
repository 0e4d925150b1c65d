package crypto

import (
	"crypto/rsa"
	"crypto/subtle"
	"errors"
	"hash"
	"io"
	"math/big"
)

var errMessageTooLong = errors.New("message too long for RSA key size")

// encryptOAEP implements RSAES-OAEP-ENCRYPT (RFC 8017 section 7.1.1) for the case where
// the label digest and the MGF1 digest differ, which rsa.EncryptOAEP cannot express.
// The label is empty.
func encryptOAEP(rng io.Reader, pub *rsa.PublicKey, scheme Scheme, msg []byte) ([]byte, error) {
	if err := checkPublicKey(pub); err != nil {
		return nil, err
	}

	h := scheme.Digest.New()
	mgf := scheme.MGFDigest.New()
	k := pub.Size()
	hLen := h.Size()
	if len(msg) > k-2*hLen-2 {
		return nil, errMessageTooLong
	}

	// EM = 0x00 || maskedSeed || maskedDB
	em := make([]byte, k)
	defer zeroize(em)
	seed := em[1 : 1+hLen]
	db := em[1+hLen:]

	// DB = lHash || PS || 0x01 || M
	h.Write(nil)
	copy(db, h.Sum(nil))
	db[len(db)-len(msg)-1] = 0x01
	copy(db[len(db)-len(msg):], msg)

	if _, err := io.ReadFull(rng, seed); err != nil {
		return nil, err
	}

	mgf1XOR(db, mgf, seed)
	mgf1XOR(seed, mgf, db)

	m := new(big.Int).SetBytes(em)
	defer zeroizeInt(m)
	c := new(big.Int).Exp(m, big.NewInt(int64(pub.E)), pub.N)
	return c.FillBytes(make([]byte, k)), nil
}

func checkPublicKey(pub *rsa.PublicKey) error {
	if pub.N == nil || pub.N.Sign() <= 0 {
		return errors.New("crypto/rsa: missing public modulus")
	}
	if pub.E < 2 {
		return errors.New("crypto/rsa: public exponent too small")
	}
	return nil
}

// mgf1XOR XORs out with the MGF1 mask generated from seed using h.
func mgf1XOR(out []byte, h hash.Hash, seed []byte) {
	var counter [4]byte
	var digest []byte

	done := 0
	for done < len(out) {
		h.Reset()
		h.Write(seed)
		h.Write(counter[:])
		digest = h.Sum(digest[:0])

		n := subtle.XORBytes(out[done:], out[done:], digest)
		done += n
		incCounter(&counter)
	}
}

func incCounter(c *[4]byte) {
	if c[3]++; c[3] != 0 {
		return
	}
	if c[2]++; c[2] != 0 {
		return
	}
	if c[1]++; c[1] != 0 {
		return
	}
	c[0]++
}
