package crypto

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/dh/x25519"
	"golang.org/x/crypto/hkdf"
)

// Kdf names the key derivation function that turns an ECDH shared secret into an AES key.
type Kdf string

const (
	HkdfSha256 Kdf = "hkdf-sha256"
	HkdfSha384 Kdf = "hkdf-sha384"
	HkdfSha512 Kdf = "hkdf-sha512"
)

// DefaultKdf is used when a request leaves the KDF empty.
const DefaultKdf = HkdfSha256

var kdfDigests = map[Kdf]Digest{
	HkdfSha256: SHA256,
	HkdfSha384: SHA384,
	HkdfSha512: SHA512,
}

// Kdfs returns the supported key derivation functions.
func Kdfs() []Kdf {
	return []Kdf{HkdfSha256, HkdfSha384, HkdfSha512}
}

func (k *Kdf) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("kdf must be a string: %w", err)
	}
	if _, ok := kdfDigests[Kdf(s)]; !ok && s != "" {
		return fmt.Errorf("%w: kdf %q", ErrUnsupported, s)
	}
	*k = Kdf(s)
	return nil
}

// EciesEncryptionAlgorithm names the AEAD that seals the ECIES payload.
type EciesEncryptionAlgorithm string

// Aes256Gcm is AES-256 in GCM mode with a 12 byte nonce and a 16 byte tag.
const Aes256Gcm EciesEncryptionAlgorithm = "AES-256-GCM"

// EciesEncryptionAlgorithms returns the supported payload ciphers.
func EciesEncryptionAlgorithms() []EciesEncryptionAlgorithm {
	return []EciesEncryptionAlgorithm{Aes256Gcm}
}

func (a *EciesEncryptionAlgorithm) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("ecies encryption algorithm must be a string: %w", err)
	}
	if s != "" && EciesEncryptionAlgorithm(s) != Aes256Gcm {
		return fmt.Errorf("%w: ecies encryption algorithm %q", ErrUnsupported, s)
	}
	*a = EciesEncryptionAlgorithm(s)
	return nil
}

// EciesScheme selects the KDF and payload cipher. Empty fields take DefaultKdf and Aes256Gcm.
type EciesScheme struct {
	Kdf       Kdf                      `json:"kdf,omitempty"`
	Algorithm EciesEncryptionAlgorithm `json:"encAlg,omitempty"`
}

func (s EciesScheme) resolve() (Digest, error) {
	kdf := s.Kdf
	if kdf == "" {
		kdf = DefaultKdf
	}
	digest, ok := kdfDigests[kdf]
	if !ok {
		return "", fmt.Errorf("%w: kdf %q", ErrUnsupported, string(kdf))
	}
	if s.Algorithm != "" && s.Algorithm != Aes256Gcm {
		return "", fmt.Errorf("%w: ecies encryption algorithm %q", ErrUnsupported, string(s.Algorithm))
	}
	return digest, nil
}

const (
	eciesKeySize   = 32
	eciesNonceSize = 12
	eciesTagSize   = 16
	x25519KeySize  = 32
)

// eciesInfo is the HKDF info prefix. The ephemeral and recipient public keys follow it.
const eciesInfo = "keyforge-ecies-v1"

var errLowOrderPoint = errors.New("x25519 public key is a low order point")

// EciesEncrypt seals plaintext to a P-256, P-384, P-521 or X25519 public key.
//
// A fresh ephemeral key pair is generated from rng on the recipient's curve. The shared
// secret is expanded with HKDF into an AES-256 key, using the ephemeral and recipient public
// keys as context. The output is
//
//	[ephemeral public key][nonce:12][ciphertext+tag]
//
// where NIST public keys are uncompressed SEC 1 points and X25519 keys are 32 bytes.
func EciesEncrypt(rng io.Reader, pub crypto.PublicKey, scheme EciesScheme, plaintext []byte) ([]byte, error) {
	digest, err := scheme.resolve()
	if err != nil {
		return nil, err
	}

	ephemeral, shared, recipient, err := ephemeralAgree(rng, pub)
	if err != nil {
		return nil, err
	}
	defer zeroize(shared)

	aead, err := eciesAEAD(digest, shared, ephemeral, recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: ecies encrypt failed: %w", ErrEncryptionFailure, err)
	}

	out := make([]byte, len(ephemeral)+eciesNonceSize, len(ephemeral)+eciesNonceSize+len(plaintext)+eciesTagSize)
	copy(out, ephemeral)
	nonce := out[len(ephemeral):]
	if _, err := io.ReadFull(rng, nonce); err != nil {
		return nil, fmt.Errorf("%w: ecies nonce failed: %w", ErrEncryptionFailure, err)
	}
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// EciesDecrypt opens an EciesEncrypt output with the matching *ecdsa.PrivateKey or X25519
// *ecdh.PrivateKey. Any tampering fails with ErrDecryptionFailure.
func EciesDecrypt(priv crypto.PrivateKey, scheme EciesScheme, ciphertext []byte) ([]byte, error) {
	digest, err := scheme.resolve()
	if err != nil {
		return nil, err
	}

	ecdhKey, err := ecdhPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	pointSize := ecdhPublicKeySize(ecdhKey.Curve())
	if len(ciphertext) < pointSize+eciesNonceSize+eciesTagSize {
		return nil, fmt.Errorf("%w: ecies ciphertext too short", ErrDecryptionFailure)
	}
	ephemeral := ciphertext[:pointSize]
	nonce := ciphertext[pointSize : pointSize+eciesNonceSize]
	sealed := ciphertext[pointSize+eciesNonceSize:]

	recipient := ecdhKey.PublicKey().Bytes()
	var shared []byte
	if ecdhKey.Curve() == ecdh.X25519() {
		secret := ecdhKey.Bytes()
		shared, err = x25519Shared(secret, ephemeral)
		zeroize(secret)
	} else {
		var peer *ecdh.PublicKey
		peer, err = ecdhKey.Curve().NewPublicKey(ephemeral)
		if err == nil {
			shared, err = ecdhKey.ECDH(peer)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: ecies key agreement failed: %w", ErrDecryptionFailure, err)
	}
	defer zeroize(shared)

	aead, err := eciesAEAD(digest, shared, ephemeral, recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: ecies decrypt failed: %w", ErrDecryptionFailure, err)
	}
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: ecies decrypt failed: %w", ErrDecryptionFailure, err)
	}
	return plaintext, nil
}

// ephemeralAgree generates an ephemeral key on pub's curve and returns its public bytes,
// the shared secret and pub's own encoding.
func ephemeralAgree(rng io.Reader, pub crypto.PublicKey) (ephemeral, shared, recipient []byte, err error) {
	var peer *ecdh.PublicKey
	switch k := pub.(type) {
	case *ecdsa.PublicKey:
		peer, err = k.ECDH()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: ecies public key: %w", ErrUnsupported, err)
		}
	case *ecdh.PublicKey:
		peer = k
	default:
		return nil, nil, nil, fmt.Errorf("%w: ecies needs an elliptic curve or x25519 public key, got %T", ErrUnsupported, pub)
	}
	recipient = peer.Bytes()

	if peer.Curve() == ecdh.X25519() {
		var secret, public x25519.Key
		defer zeroize(secret[:])
		if _, err := io.ReadFull(rng, secret[:]); err != nil {
			return nil, nil, nil, fmt.Errorf("%w: generate ephemeral key failed: %w", ErrEncryptionFailure, err)
		}
		x25519.KeyGen(&public, &secret)
		shared, err = x25519Shared(secret[:], recipient)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: ecies key agreement failed: %w", ErrEncryptionFailure, err)
		}
		return public[:], shared, recipient, nil
	}

	eph, err := peer.Curve().GenerateKey(rng)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: generate ephemeral key failed: %w", ErrEncryptionFailure, err)
	}
	shared, err = eph.ECDH(peer)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: ecies key agreement failed: %w", ErrEncryptionFailure, err)
	}
	return eph.PublicKey().Bytes(), shared, recipient, nil
}

// x25519Shared computes the X25519 shared secret, rejecting low order peer points.
func x25519Shared(secret, peer []byte) ([]byte, error) {
	if len(peer) != x25519KeySize {
		return nil, fmt.Errorf("x25519 public key must be %d bytes, got %d", x25519KeySize, len(peer))
	}
	var sk, pk, shared x25519.Key
	defer zeroize(sk[:])
	copy(sk[:], secret)
	copy(pk[:], peer)
	if !x25519.Shared(&shared, &sk, &pk) {
		return nil, errLowOrderPoint
	}
	return shared[:], nil
}

func ecdhPrivateKey(priv crypto.PrivateKey) (*ecdh.PrivateKey, error) {
	switch k := priv.(type) {
	case *ecdsa.PrivateKey:
		key, err := k.ECDH()
		if err != nil {
			return nil, fmt.Errorf("%w: ecies private key: %w", ErrUnsupported, err)
		}
		return key, nil
	case *ecdh.PrivateKey:
		return k, nil
	default:
		return nil, fmt.Errorf("%w: ecies needs an elliptic curve or x25519 private key, got %T", ErrUnsupported, priv)
	}
}

// ecdhPublicKeySize is the encoded length of a public key on curve.
func ecdhPublicKeySize(curve ecdh.Curve) int {
	switch curve {
	case ecdh.P256():
		return 65
	case ecdh.P384():
		return 97
	case ecdh.P521():
		return 133
	default:
		return x25519KeySize
	}
}

// eciesAEAD derives the AES-256 key and wraps it in GCM. The derived key is wiped once the
// cipher is built.
func eciesAEAD(digest Digest, shared, ephemeral, recipient []byte) (cipher.AEAD, error) {
	info := make([]byte, 0, len(eciesInfo)+len(ephemeral)+len(recipient))
	info = append(info, eciesInfo...)
	info = append(info, ephemeral...)
	info = append(info, recipient...)

	key := make([]byte, eciesKeySize)
	defer zeroize(key)
	if _, err := io.ReadFull(hkdf.New(digest.New, shared, nil, info), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// EciesFamily restricts which curves an ECIES request accepts.
type EciesFamily int

const (
	// EciesNIST accepts P-256, P-384 and P-521 keys.
	EciesNIST EciesFamily = iota
	// EciesX25519 accepts X25519 keys.
	EciesX25519
)

func (f EciesFamily) String() string {
	if f == EciesX25519 {
		return "x25519"
	}
	return "nist"
}

func (f EciesFamily) accepts(curve ecdh.Curve) bool {
	if f == EciesX25519 {
		return curve == ecdh.X25519()
	}
	return curve != ecdh.X25519()
}

// EciesRequest carries an encoded key, the ECIES scheme and the input bytes.
//
// For encryption Key holds a public key; for decryption it holds a private key. Both are
// decoded with Format:
//
//	{"key": "...", "format": "Pkcs8Pem", "kdf": "hkdf-sha256", "encAlg": "AES-256-GCM", "input": "..."}
type EciesRequest struct {
	Key    []byte              `json:"key"`
	Format AsymmetricKeyFormat `json:"format"`
	EciesScheme
	Input []byte `json:"input"`
}

// EciesEncryptKey decodes the public key in req and seals req.Input to it.
// The key must belong to family.
func EciesEncryptKey(rng io.Reader, family EciesFamily, req *EciesRequest) ([]byte, error) {
	if req == nil {
		return nil, errNilRequest
	}
	key, err := DecodePublicKey(req.Key, req.Format)
	if err != nil {
		return nil, err
	}
	var curve ecdh.Curve
	switch k := key.(type) {
	case *ecdsa.PublicKey:
		pub, err := k.ECDH()
		if err != nil {
			return nil, fmt.Errorf("%w: ecies public key: %w", ErrUnsupported, err)
		}
		curve = pub.Curve()
	case *ecdh.PublicKey:
		curve = k.Curve()
	}
	if curve == nil || !family.accepts(curve) {
		return nil, fmt.Errorf("%w: %s ecies needs a %s public key, got %T", ErrUnsupported, family, family, key)
	}
	return EciesEncrypt(rng, key, req.EciesScheme, req.Input)
}

// EciesDecryptKey decodes the private key in req and opens req.Input with it.
// The key must belong to family. The decoded key is wiped before returning.
func EciesDecryptKey(family EciesFamily, req *EciesRequest) ([]byte, error) {
	if req == nil {
		return nil, errNilRequest
	}
	key, err := DecodePrivateKey(req.Key, req.Format)
	if err != nil {
		return nil, err
	}
	defer WipePrivateKey(key)

	ecdhKey, err := ecdhPrivateKey(key)
	if err != nil {
		return nil, err
	}
	if !family.accepts(ecdhKey.Curve()) {
		return nil, fmt.Errorf("%w: %s ecies needs a %s private key", ErrUnsupported, family, family)
	}
	return EciesDecrypt(key, req.EciesScheme, req.Input)
}
