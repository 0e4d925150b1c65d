package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"math/big"
	"runtime"
)

// Secret holds serialized private key material.
// Whoever receives a Secret owns it and must call Wipe once the bytes are no longer needed,
// normally with defer right after the error check.
type Secret []byte

// Wipe overwrites the secret with zeros.
func (s Secret) Wipe() {
	zeroize(s)
}

// zeroize overwrites a byte slice with zeros to clear sensitive data from memory.
// Go's garbage collector does not guarantee immediate collection, so secrets are
// cleared explicitly as soon as they're no longer needed.
func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b) // Prevent dead code elimination
}

// zeroizeInt clears the words backing a big.Int and resets it to zero.
func zeroizeInt(x *big.Int) {
	if x == nil {
		return
	}
	words := x.Bits()
	for i := range words {
		words[i] = 0
	}
	runtime.KeepAlive(words)
	x.SetInt64(0)
}

// WipePrivateKey clears the secret components of a parsed private key.
//
// RSA private exponent, primes and CRT values, the ECDSA scalar and the Ed25519
// seed are overwritten in place, and a wiped RSA key fails every private operation.
// X25519 keys (*ecdh.PrivateKey) are opaque and are left to the garbage collector.
//
// Zeroing is complete for RSA keys from DecodePrivateKey, which never precomputes.
// Keys from rsa.GenerateKey, and the temporary key the rsa package derives for each
// decryption, hold copies in unexported fields that only the garbage collector frees.
func WipePrivateKey(key crypto.PrivateKey) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		if k == nil {
			return
		}
		zeroizeInt(k.D)
		for _, p := range k.Primes {
			zeroizeInt(p)
		}
		zeroizeInt(k.Precomputed.Dp)
		zeroizeInt(k.Precomputed.Dq)
		zeroizeInt(k.Precomputed.Qinv)
		for _, crt := range k.Precomputed.CRTValues {
			zeroizeInt(crt.Exp)
			zeroizeInt(crt.Coeff)
			zeroizeInt(crt.R)
		}
		// Drops the cached key the rsa package builds in Precompute, so the key
		// can no longer be used even though that copy is left to the garbage collector.
		k.Precomputed = rsa.PrecomputedValues{}
	case *ecdsa.PrivateKey:
		if k == nil {
			return
		}
		zeroizeInt(k.D)
	case ed25519.PrivateKey:
		zeroize(k)
	}
}
