package crypto

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
)

// Padding is the RSA encryption padding kind.
type Padding string

const (
	// PKCS1v15 is RSAES-PKCS1-v1_5. It takes no digest parameters.
	PKCS1v15 Padding = "pkcs1-v1_5"
	// OAEP is RSAES-OAEP with independently selectable digest and MGF1 digest.
	OAEP Padding = "oaep"
)

// Paddings returns both padding kinds.
func Paddings() []Padding {
	return []Padding{PKCS1v15, OAEP}
}

func (p *Padding) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("padding must be a string: %w", err)
	}
	switch Padding(s) {
	case PKCS1v15, OAEP:
		*p = Padding(s)
		return nil
	default:
		return fmt.Errorf("%w: padding %q", ErrUnsupported, s)
	}
}

// PaddingSpec is the caller's description of an RSA encryption padding.
//
// Digest and MGFDigest are optional. They default to SHA-256 for OAEP and are
// ignored entirely for PKCS#1 v1.5.
type PaddingSpec struct {
	Padding   Padding `json:"padding"`
	Digest    Digest  `json:"digest,omitempty"`
	MGFDigest Digest  `json:"mgfDigest,omitempty"`
}

// required reports a missing padding kind. Resolve treats it as PKCS#1 v1.5, so request
// entry points check it first.
func (s PaddingSpec) required() error {
	if s.Padding == "" {
		return fmt.Errorf("%w: padding is required", ErrUnsupported)
	}
	return nil
}

// Scheme is a resolved, concrete encryption scheme.
// For PKCS1v15 both digests are empty. For OAEP both are set and the label is empty.
type Scheme struct {
	Padding   Padding
	Digest    Digest
	MGFDigest Digest
}

// DefaultOAEPDigest is used for any OAEP digest the caller leaves unspecified.
const DefaultOAEPDigest = SHA256

// Resolve builds the concrete scheme for a padding spec. It never fails: digest tokens
// are validated when the spec is decoded, and any padding other than OAEP resolves to PKCS#1 v1.5.
func Resolve(spec PaddingSpec) Scheme {
	if spec.Padding != OAEP {
		return Scheme{Padding: PKCS1v15}
	}
	scheme := Scheme{Padding: OAEP, Digest: spec.Digest, MGFDigest: spec.MGFDigest}
	if scheme.Digest == "" {
		scheme.Digest = DefaultOAEPDigest
	}
	if scheme.MGFDigest == "" {
		scheme.MGFDigest = DefaultOAEPDigest
	}
	return scheme
}

// MaxMessageLength returns the longest plaintext the scheme can encrypt under pub.
// It returns 0 when the key is too small to hold any message.
func MaxMessageLength(pub *rsa.PublicKey, scheme Scheme) int {
	k := pub.Size()
	var n int
	if scheme.Padding == OAEP {
		n = k - 2*scheme.Digest.Size() - 2
	} else {
		n = k - 11
	}
	return max(n, 0)
}

// EncryptRSA encrypts plaintext under pub with the given scheme, reading padding randomness from rng.
func EncryptRSA(rng io.Reader, pub *rsa.PublicKey, scheme Scheme, plaintext []byte) ([]byte, error) {
	if pub == nil {
		return nil, fmt.Errorf("%w: public key cannot be nil", ErrEncryptionFailure)
	}

	var (
		ciphertext []byte
		err        error
	)
	switch scheme.Padding {
	case OAEP:
		if scheme.Digest == scheme.MGFDigest {
			ciphertext, err = rsa.EncryptOAEP(scheme.Digest.New(), rng, pub, plaintext, nil)
		} else {
			ciphertext, err = encryptOAEP(rng, pub, scheme, plaintext)
		}
	default:
		ciphertext, err = rsa.EncryptPKCS1v15(rng, pub, plaintext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: rsa %s encrypt failed: %w", ErrEncryptionFailure, scheme.Padding, err)
	}
	return ciphertext, nil
}

// DecryptRSA decrypts ciphertext with priv using the given scheme.
//
// The returned error only ever wraps the primitive's own error, so a padding mismatch
// is not distinguishable from a wrong key.
func DecryptRSA(priv *rsa.PrivateKey, scheme Scheme, ciphertext []byte) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: private key cannot be nil", ErrDecryptionFailure)
	}

	var (
		plaintext []byte
		err       error
	)
	switch scheme.Padding {
	case OAEP:
		plaintext, err = priv.Decrypt(nil, ciphertext, &rsa.OAEPOptions{
			Hash:    scheme.Digest.Hash(),
			MGFHash: scheme.MGFDigest.Hash(),
		})
	default:
		plaintext, err = rsa.DecryptPKCS1v15(nil, priv, ciphertext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: rsa %s decrypt failed: %w", ErrDecryptionFailure, scheme.Padding, err)
	}
	return plaintext, nil
}
