package crypto

import (
	"crypto/rsa"
	"encoding/asn1"
	"errors"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// RSA private keys are parsed and marshaled here instead of in crypto/x509.
//
// x509 validates keys through rsa.PrivateKey.Precompute, which caches a second copy of
// d, p and q inside an unexported field that WipePrivateKey cannot reach. Keys built here
// carry only N, E, D and the two primes, and every CRT value needed for encoding is
// computed into big.Ints that are wiped before returning.

var oidRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}

var (
	errMalformedRSAKey = errors.New("malformed rsa private key")
	errMultiPrimeRSA   = errors.New("multi-prime rsa keys are not supported")
	errInvalidRSAKey   = errors.New("inconsistent rsa private key")
)

// parsePKCS1PrivateKey parses an RSAPrivateKey structure (RFC 8017 A.1.2).
func parsePKCS1PrivateKey(der []byte) (*rsa.PrivateKey, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, errMalformedRSAKey
	}

	var version int
	if !seq.ReadASN1Integer(&version) {
		return nil, errMalformedRSAKey
	}
	if version != 0 {
		return nil, errMultiPrimeRSA
	}

	n, d, p, q := new(big.Int), new(big.Int), new(big.Int), new(big.Int)
	dp, dq, qinv := new(big.Int), new(big.Int), new(big.Int)
	defer func() {
		zeroizeInt(dp)
		zeroizeInt(dq)
		zeroizeInt(qinv)
	}()
	var e int
	if !seq.ReadASN1Integer(n) ||
		!seq.ReadASN1Integer(&e) ||
		!seq.ReadASN1Integer(d) ||
		!seq.ReadASN1Integer(p) ||
		!seq.ReadASN1Integer(q) ||
		!seq.ReadASN1Integer(dp) ||
		!seq.ReadASN1Integer(dq) ||
		!seq.ReadASN1Integer(qinv) ||
		!seq.Empty() {
		zeroizeInt(d)
		zeroizeInt(p)
		zeroizeInt(q)
		return nil, errMalformedRSAKey
	}

	key := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: n, E: e},
		D:         d,
		Primes:    []*big.Int{p, q},
	}
	if err := checkRSAKey(key); err != nil {
		WipePrivateKey(key)
		return nil, err
	}
	return key, nil
}

// checkRSAKey verifies N = p·q and that d inverts e modulo p-1 and q-1.
func checkRSAKey(key *rsa.PrivateKey) error {
	if key.N.Sign() <= 0 || key.D.Sign() <= 0 || key.E < 3 || key.E&1 == 0 {
		return errInvalidRSAKey
	}
	if len(key.Primes) != 2 {
		return errMultiPrimeRSA
	}
	p, q := key.Primes[0], key.Primes[1]
	if p.Cmp(bigOne) <= 0 || q.Cmp(bigOne) <= 0 {
		return errInvalidRSAKey
	}

	modulus := new(big.Int).Mul(p, q)
	if modulus.Cmp(key.N) != 0 {
		return errInvalidRSAKey
	}

	e := big.NewInt(int64(key.E))
	de := new(big.Int).Mul(key.D, e)
	defer zeroizeInt(de)
	for _, prime := range key.Primes {
		pminus1 := new(big.Int).Sub(prime, bigOne)
		r := new(big.Int).Mod(de, pminus1)
		ok := r.Cmp(bigOne) == 0
		zeroizeInt(pminus1)
		zeroizeInt(r)
		if !ok {
			return errInvalidRSAKey
		}
	}
	return nil
}

var bigOne = big.NewInt(1)

// parsePKCS8RSAPrivateKey parses a PrivateKeyInfo holding an RSA key.
// ok is false, with a nil error, when the structure is well formed but holds another key family.
func parsePKCS8RSAPrivateKey(der []byte) (key *rsa.PrivateKey, ok bool, err error) {
	input := cryptobyte.String(der)
	var seq, algID, inner cryptobyte.String
	var version int
	var oid asn1.ObjectIdentifier
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) ||
		!seq.ReadASN1Integer(&version) ||
		!seq.ReadASN1(&algID, cryptobyte_asn1.SEQUENCE) ||
		!algID.ReadASN1ObjectIdentifier(&oid) {
		// Let x509 report the detailed error.
		return nil, false, nil
	}
	if !oid.Equal(oidRSAEncryption) {
		return nil, false, nil
	}
	if !seq.ReadASN1(&inner, cryptobyte_asn1.OCTET_STRING) {
		return nil, true, errMalformedRSAKey
	}
	key, err = parsePKCS1PrivateKey(inner)
	return key, true, err
}

// marshalPKCS1PrivateKey encodes a two-prime RSA key as an RSAPrivateKey structure.
func marshalPKCS1PrivateKey(key *rsa.PrivateKey) ([]byte, error) {
	b := cryptobyte.NewBuilder(make([]byte, 0, rsaDERCapacity(key)))
	if err := addPKCS1PrivateKey(b, key); err != nil {
		return nil, err
	}
	return b.Bytes()
}

// marshalPKCS8RSAPrivateKey wraps the RSAPrivateKey structure in a PrivateKeyInfo.
func marshalPKCS8RSAPrivateKey(key *rsa.PrivateKey) ([]byte, error) {
	var inner error
	b := cryptobyte.NewBuilder(make([]byte, 0, rsaDERCapacity(key)+32))
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oidRSAEncryption)
			b.AddASN1NULL()
		})
		b.AddASN1(cryptobyte_asn1.OCTET_STRING, func(b *cryptobyte.Builder) {
			inner = addPKCS1PrivateKey(b, key)
		})
	})
	if inner != nil {
		return nil, inner
	}
	return b.Bytes()
}

// rsaDERCapacity is large enough for the whole encoding so the builder never reallocates
// and leaves stale copies of the key behind.
func rsaDERCapacity(key *rsa.PrivateKey) int {
	return 9*(key.N.BitLen()/8+8) + 64
}

func addPKCS1PrivateKey(b *cryptobyte.Builder, key *rsa.PrivateKey) error {
	if key == nil || key.N == nil || key.D == nil {
		return errInvalidRSAKey
	}
	if len(key.Primes) != 2 {
		return errMultiPrimeRSA
	}
	p, q := key.Primes[0], key.Primes[1]

	pminus1 := new(big.Int).Sub(p, bigOne)
	qminus1 := new(big.Int).Sub(q, bigOne)
	dp := new(big.Int).Mod(key.D, pminus1)
	dq := new(big.Int).Mod(key.D, qminus1)
	qinv := new(big.Int).ModInverse(q, p)
	defer func() {
		for _, x := range []*big.Int{pminus1, qminus1, dp, dq, qinv} {
			zeroizeInt(x)
		}
	}()
	if qinv == nil {
		return errInvalidRSAKey
	}

	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		b.AddASN1BigInt(key.N)
		b.AddASN1Int64(int64(key.E))
		for _, x := range []*big.Int{key.D, p, q, dp, dq, qinv} {
			addSecretInt(b, x)
		}
	})
	return nil
}

// addSecretInt writes a non-negative INTEGER through a buffer that is wiped afterwards.
func addSecretInt(b *cryptobyte.Builder, x *big.Int) {
	buf := make([]byte, (x.BitLen()+7)/8)
	x.FillBytes(buf)
	defer zeroize(buf)
	b.AddASN1(cryptobyte_asn1.INTEGER, func(b *cryptobyte.Builder) {
		if len(buf) == 0 || buf[0]&0x80 != 0 {
			b.AddUint8(0)
		}
		b.AddBytes(buf)
	})
}
