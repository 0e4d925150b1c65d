// Package crypto provides the key-material core of keyforge: a codec between in-memory keys
// and the PKCS#1/PKCS#8 × PEM/DER wire encodings, RSA padding resolution and encryption,
// key pair generation and re-encoding of existing key pairs.
//
// Functions in this package never log and never retry. Randomness is always passed in as an
// io.Reader so callers decide the source (crypto/rand.Reader in production). Serialized private
// keys are returned as Secret values that the caller must Wipe.
package crypto

import (
	"bytes"
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"unicode/utf8"
)

// DecodePrivateKey parses a private key serialized in format f.
//
// PEM input must be valid UTF-8 and carry the block type matching the format:
// "RSA PRIVATE KEY" for Pkcs1Pem and "PRIVATE KEY" for Pkcs8Pem. The UTF-8 check
// runs before anything else touches the input. LF, CRLF and bare CR line endings are accepted.
//
// The result is one of *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey or
// *ecdh.PrivateKey. The caller owns it and should call WipePrivateKey when done.
// RSA keys are returned without precomputed CRT values so that wiping reaches every copy
// of the private exponent and primes.
func DecodePrivateKey(b []byte, f AsymmetricKeyFormat) (crypto.PrivateKey, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: key format %d", ErrUnsupported, int(f))
	}
	label, _ := f.pemLabels()
	der, err := unarmor(b, f, label)
	if err != nil {
		return nil, err
	}
	if f.IsPEM() {
		defer zeroize(der)
	}

	if f.IsPKCS1() {
		key, err := parsePKCS1PrivateKey(der)
		if err != nil {
			return nil, fmt.Errorf("%w: init pkcs1 rsa private key failed: %w", ErrInvalidKeyEncoding, err)
		}
		return key, nil
	}

	rsaKey, isRSA, err := parsePKCS8RSAPrivateKey(der)
	if isRSA {
		if err != nil {
			return nil, fmt.Errorf("%w: init pkcs8 private key failed: %w", ErrInvalidKeyEncoding, err)
		}
		return rsaKey, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: init pkcs8 private key failed: %w", ErrInvalidKeyEncoding, err)
	}
	return key, nil
}

// DecodePublicKey parses a public key serialized in format f.
//
// Pkcs1 formats hold a bare RSAPublicKey ("RSA PUBLIC KEY"); Pkcs8 formats hold a
// SubjectPublicKeyInfo ("PUBLIC KEY"). PEM input is subject to the same UTF-8 and
// block type checks as DecodePrivateKey.
func DecodePublicKey(b []byte, f AsymmetricKeyFormat) (crypto.PublicKey, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: key format %d", ErrUnsupported, int(f))
	}
	_, label := f.pemLabels()
	der, err := unarmor(b, f, label)
	if err != nil {
		return nil, err
	}

	if f.IsPKCS1() {
		key, err := x509.ParsePKCS1PublicKey(der)
		if err != nil {
			return nil, fmt.Errorf("%w: init pkcs1 rsa public key failed: %w", ErrInvalidKeyEncoding, err)
		}
		return key, nil
	}

	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: init pkcs8 public key failed: %w", ErrInvalidKeyEncoding, err)
	}
	return key, nil
}

// unarmor returns the DER payload of b. DER formats are returned as is.
func unarmor(b []byte, f AsymmetricKeyFormat, label string) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: key data cannot be empty", ErrInvalidKeyEncoding)
	}
	if !f.IsPEM() {
		return b, nil
	}
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("%w: pem input is not valid utf-8", ErrInvalidKeyEncoding)
	}
	if bytes.IndexByte(b, '\r') >= 0 {
		b = normalizeLineEndings(b)
		defer zeroize(b)
	}
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, fmt.Errorf("%w: no pem block found", ErrInvalidKeyEncoding)
	}
	if block.Type != label {
		zeroize(block.Bytes)
		return nil, fmt.Errorf("%w: pem block type %q does not match %s (want %q)", ErrInvalidKeyEncoding, block.Type, f, label)
	}
	return block.Bytes, nil
}

// normalizeLineEndings returns a copy of b with CRLF and bare CR line endings turned into LF.
func normalizeLineEndings(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\r' {
			out = append(out, b[i])
			continue
		}
		out = append(out, '\n')
		if i+1 < len(b) && b[i+1] == '\n' {
			i++
		}
	}
	return out
}

// EncodePrivateKey serializes a private key in format f.
//
// Pkcs1 formats only accept *rsa.PrivateKey; other key families fail with ErrUnsupported.
// PEM output uses LF line endings. The DER intermediate of a PEM encoding is wiped before
// returning, and the returned Secret must be wiped by the caller.
func EncodePrivateKey(key crypto.PrivateKey, f AsymmetricKeyFormat) (Secret, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: key format %d", ErrUnsupported, int(f))
	}

	rsaKey, isRSA := key.(*rsa.PrivateKey)
	if f.IsPKCS1() && !isRSA {
		return nil, fmt.Errorf("%w: %s only encodes rsa private keys, got %T", ErrUnsupported, f, key)
	}

	var der []byte
	var err error
	switch {
	case f.IsPKCS1():
		der, err = marshalPKCS1PrivateKey(rsaKey)
	case isRSA:
		der, err = marshalPKCS8RSAPrivateKey(rsaKey)
	default:
		der, err = x509.MarshalPKCS8PrivateKey(key)
	}
	if err != nil {
		if f.IsPKCS1() {
			return nil, fmt.Errorf("%w: encode pkcs1 rsa private key failed: %w", ErrEncodingFailure, err)
		}
		return nil, fmt.Errorf("%w: encode pkcs8 private key failed: %w", ErrEncodingFailure, err)
	}

	if !f.IsPEM() {
		return Secret(der), nil
	}
	defer zeroize(der)
	label, _ := f.pemLabels()
	return Secret(pem.EncodeToMemory(&pem.Block{Type: label, Bytes: der})), nil
}

// EncodePublicKey serializes a public key in format f.
// Pkcs1 formats only accept *rsa.PublicKey; Pkcs8 formats produce a SubjectPublicKeyInfo.
func EncodePublicKey(key crypto.PublicKey, f AsymmetricKeyFormat) ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: key format %d", ErrUnsupported, int(f))
	}

	var der []byte
	if f.IsPKCS1() {
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: %s only encodes rsa public keys, got %T", ErrUnsupported, f, key)
		}
		der = x509.MarshalPKCS1PublicKey(rsaKey)
	} else {
		var err error
		der, err = x509.MarshalPKIXPublicKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: encode pkcs8 public key failed: %w", ErrEncodingFailure, err)
		}
	}

	if !f.IsPEM() {
		return der, nil
	}
	_, label := f.pemLabels()
	return pem.EncodeToMemory(&pem.Block{Type: label, Bytes: der}), nil
}

// PublicKeyOf returns the public half of a supported private key.
func PublicKeyOf(key crypto.PrivateKey) (crypto.PublicKey, error) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return &k.PublicKey, nil
	case *ecdsa.PrivateKey:
		return &k.PublicKey, nil
	case ed25519.PrivateKey:
		return k.Public(), nil
	case *ecdh.PrivateKey:
		return k.PublicKey(), nil
	default:
		return nil, fmt.Errorf("%w: private key type %T", ErrUnsupported, key)
	}
}
