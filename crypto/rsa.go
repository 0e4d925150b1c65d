package crypto

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// RsaKeySize is a supported RSA modulus size in bits.
type RsaKeySize int

const (
	Rsa2048 RsaKeySize = 2048
	Rsa3072 RsaKeySize = 3072
	Rsa4096 RsaKeySize = 4096
)

// RsaKeySizes returns the supported tiers in ascending order.
func RsaKeySizes() []RsaKeySize {
	return []RsaKeySize{Rsa2048, Rsa3072, Rsa4096}
}

// Validate returns ErrKeySizeInvalid unless s is a supported tier.
func (s RsaKeySize) Validate() error {
	switch s {
	case Rsa2048, Rsa3072, Rsa4096:
		return nil
	case 0:
		return fmt.Errorf("%w: rsa key size is required", ErrKeySizeInvalid)
	default:
		return fmt.Errorf("%w: %d bits is not a supported rsa key size", ErrKeySizeInvalid, int(s))
	}
}

func (s *RsaKeySize) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var bits int
	if err := json.Unmarshal(data, &bits); err != nil {
		return fmt.Errorf("%w: rsa key size must be an integer: %w", ErrKeySizeInvalid, err)
	}
	size := RsaKeySize(bits)
	if err := size.Validate(); err != nil {
		return err
	}
	*s = size
	return nil
}

// NewRSAKey generates an RSA private key of a supported size.
// The caller owns the key and should release it with WipePrivateKey.
func NewRSAKey(rng io.Reader, size RsaKeySize) (*rsa.PrivateKey, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	key, err := rsa.GenerateKey(rng, int(size))
	if err != nil {
		return nil, fmt.Errorf("generate rsa %d key failed: %w", int(size), err)
	}
	return key, nil
}

// GenerateRSA generates an RSA private key and returns it serialized in format f.
// The in-memory key is wiped before returning.
func GenerateRSA(rng io.Reader, size RsaKeySize, f AsymmetricKeyFormat) (Secret, error) {
	key, err := NewRSAKey(rng, size)
	if err != nil {
		return nil, err
	}
	defer WipePrivateKey(key)

	return EncodePrivateKey(key, f)
}

// DerivePublicKey decodes a private key in format f and returns its public key in the same format.
// Any key family the codec understands is accepted; Pkcs1 formats are RSA only.
func DerivePublicKey(privateKey []byte, f AsymmetricKeyFormat) ([]byte, error) {
	key, err := DecodePrivateKey(privateKey, f)
	if err != nil {
		return nil, err
	}
	defer WipePrivateKey(key)

	pub, err := PublicKeyOf(key)
	if err != nil {
		return nil, err
	}
	return EncodePublicKey(pub, f)
}

// RSAEncryptionRequest carries an encoded RSA key, the padding description and the input bytes.
//
// For encryption Key holds a public key; for decryption it holds a private key. Both are
// decoded with Format. The padding fields are inlined in the JSON form:
//
//	{"key": "...", "format": "Pkcs8Pem", "padding": "oaep", "digest": "sha256", "input": "..."}
type RSAEncryptionRequest struct {
	Key    []byte              `json:"key"`
	Format AsymmetricKeyFormat `json:"format"`
	PaddingSpec
	Input []byte `json:"input"`
}

var errNilRequest = errors.New("request cannot be nil")

// EncryptRSAKey decodes the public key in req and encrypts req.Input with the resolved padding.
// req.Padding must be set.
func EncryptRSAKey(rng io.Reader, req *RSAEncryptionRequest) ([]byte, error) {
	if req == nil {
		return nil, errNilRequest
	}
	if err := req.PaddingSpec.required(); err != nil {
		return nil, err
	}
	key, err := DecodePublicKey(req.Key, req.Format)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: rsa encryption needs an rsa public key, got %T", ErrUnsupported, key)
	}
	return EncryptRSA(rng, pub, Resolve(req.PaddingSpec), req.Input)
}

// DecryptRSAKey decodes the private key in req and decrypts req.Input with the resolved padding.
// req.Padding must be set.
// The decoded key is wiped before returning.
func DecryptRSAKey(req *RSAEncryptionRequest) ([]byte, error) {
	if req == nil {
		return nil, errNilRequest
	}
	if err := req.PaddingSpec.required(); err != nil {
		return nil, err
	}
	key, err := DecodePrivateKey(req.Key, req.Format)
	if err != nil {
		return nil, err
	}
	defer WipePrivateKey(key)

	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: rsa decryption needs an rsa private key, got %T", ErrUnsupported, key)
	}
	return DecryptRSA(priv, Resolve(req.PaddingSpec), req.Input)
}
