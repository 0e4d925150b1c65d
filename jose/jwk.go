package jose

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	dhx25519 "github.com/cloudflare/circl/dh/x25519"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/x25519"

	"github.com/joncooperworks/keyforge/crypto"
)

// GenerateRequest describes a JWK to generate.
//
// KeyType is required and supplies the default algorithm. When Algorithm is set, the family
// it belongs to decides the key material, whatever KeyType says. Algorithm is only written
// to the "alg" member when set explicitly. Bits is required for RSA material and rejected
// for every other family.
type GenerateRequest struct {
	// KeyID is written to "kid" when not empty.
	KeyID string `json:"keyId,omitempty"`
	// KeyType selects the key family when Algorithm is empty.
	KeyType KeyType `json:"keyType"`
	// Algorithm selects the exact key material (family, curve, octet length).
	Algorithm Algorithm `json:"algorithm,omitempty"`
	// Usage is written to "use" as "enc" or "sig" when set.
	Usage Usage `json:"usage,omitempty"`
	// Operations is written to "key_ops" when not empty.
	Operations []Operation `json:"operations,omitempty"`
	// Bits is the RSA modulus size. It is never defaulted.
	Bits crypto.RsaKeySize `json:"bits,omitempty"`
}

// GenerateJWK generates fresh key material for req and returns it as an indented JWK JSON
// document, private members included. All randomness is read from rng.
//
// Symmetric algorithms produce an "oct" key of 32, 48 or 64 bytes for the 128, 192 and 256 bit
// tiers. ES256, ES384, ES512 and ES256K produce "EC" keys on P-256, P-384, P-521 and secp256k1.
// RSA algorithms produce an "RSA" key of req.Bits bits. EdDSA and the ECDH-ES family produce
// "OKP" keys on Ed25519 and X25519.
func GenerateJWK(rng io.Reader, req *GenerateRequest) (string, error) {
	if req == nil {
		return "", errors.New("request cannot be nil")
	}
	if !req.KeyType.valid() {
		return "", fmt.Errorf("%w: key type %q", crypto.ErrUnsupported, string(req.KeyType))
	}

	alg := req.Algorithm
	if alg == "" {
		alg = req.KeyType.DefaultAlgorithm()
	}
	kt, err := alg.KeyType()
	if err != nil {
		return "", err
	}
	if req.Bits != 0 && kt != RSA {
		return "", fmt.Errorf("%w: bits only apply to rsa keys, not %s", crypto.ErrUnsupported, kt)
	}

	members, err := generateMaterial(rng, alg, kt, req.Bits)
	if err != nil {
		return "", err
	}

	if req.KeyID != "" {
		members[jwk.KeyIDKey] = req.KeyID
	}
	if req.Algorithm != "" {
		members[jwk.AlgorithmKey] = string(req.Algorithm)
	}
	if len(req.Operations) > 0 {
		members[jwk.KeyOpsKey] = req.Operations
	}
	if req.Usage != "" {
		members[jwk.KeyUsageKey] = req.Usage.Code()
	}

	out, err := json.MarshalIndent(members, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: jwk to string failed: %w", crypto.ErrSerializationFailure, err)
	}
	return string(out), nil
}

func generateMaterial(rng io.Reader, alg Algorithm, kt KeyType, bits crypto.RsaKeySize) (map[string]any, error) {
	switch kt {
	case Symmetric:
		secret := make(crypto.Secret, symmetricKeySize(alg))
		defer secret.Wipe()
		if _, err := io.ReadFull(rng, secret); err != nil {
			return nil, fmt.Errorf("generate %s key failed: %w", alg, err)
		}
		return jwkMembers([]byte(secret))

	case ECDSA:
		if alg == ES256K {
			return secp256k1Members(rng)
		}
		curve := ecdsaCurve(alg)
		key, err := ecdsa.GenerateKey(curve, rng)
		if err != nil {
			return nil, fmt.Errorf("generate %s key failed: %w", curve.Params().Name, err)
		}
		defer crypto.WipePrivateKey(key)
		return jwkMembers(key)

	case RSA:
		key, err := crypto.NewRSAKey(rng, bits)
		if err != nil {
			return nil, err
		}
		defer crypto.WipePrivateKey(key)
		return jwkMembers(key)

	case Ed25519:
		_, key, err := ed25519.GenerateKey(rng)
		if err != nil {
			return nil, fmt.Errorf("generate ed25519 key failed: %w", err)
		}
		defer crypto.WipePrivateKey(key)
		return jwkMembers(key)

	case X25519:
		var secret, public dhx25519.Key
		if _, err := io.ReadFull(rng, secret[:]); err != nil {
			return nil, fmt.Errorf("generate x25519 key failed: %w", err)
		}
		dhx25519.KeyGen(&public, &secret)
		key := make(x25519.PrivateKey, 0, x25519.PrivateKeySize)
		key = append(append(key, secret[:]...), public[:]...)
		defer crypto.Secret(key).Wipe()
		defer crypto.Secret(secret[:]).Wipe()
		return jwkMembers(key)
	}
	return nil, fmt.Errorf("%w: key type %q", crypto.ErrUnsupported, string(kt))
}

// symmetricKeySize returns the octet length for the 128, 192 and 256 bit tiers.
func symmetricKeySize(alg Algorithm) int {
	switch alg {
	case HS384, A192KW, A192GCM, A192GCMKW, A192CBCHS384:
		return 48
	case HS512, A256KW, A256GCM, A256GCMKW, A256CBCHS512:
		return 64
	default:
		return 32
	}
}

func ecdsaCurve(alg Algorithm) elliptic.Curve {
	switch alg {
	case ES384:
		return elliptic.P384()
	case ES512:
		return elliptic.P521()
	default:
		return elliptic.P256()
	}
}

// jwkMembers converts a raw key into the members of its JWK object.
func jwkMembers(raw any) (map[string]any, error) {
	key, err := jwk.FromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: init jwk failed: %w", crypto.ErrSerializationFailure, err)
	}
	buf, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("%w: serialize jwk failed: %w", crypto.ErrSerializationFailure, err)
	}
	defer crypto.Secret(buf).Wipe()

	var members map[string]any
	if err := json.Unmarshal(buf, &members); err != nil {
		return nil, fmt.Errorf("%w: serialize jwk failed: %w", crypto.ErrSerializationFailure, err)
	}
	return members, nil
}

// secp256k1Members builds an EC JWK on secp256k1 by hand.
// The private scalar is sampled by rejection so it is uniform in [1, n).
func secp256k1Members(rng io.Reader) (map[string]any, error) {
	key, err := newSecp256k1Key(rng)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	d := key.Serialize()
	defer crypto.Secret(d).Wipe()
	pub := key.PubKey().SerializeUncompressed()

	enc := base64.RawURLEncoding
	return map[string]any{
		jwk.KeyTypeKey:  "EC",
		jwk.ECDSACrvKey: secp256k1CurveName,
		jwk.ECDSAXKey:   enc.EncodeToString(pub[1:33]),
		jwk.ECDSAYKey:   enc.EncodeToString(pub[33:65]),
		jwk.ECDSADKey:   enc.EncodeToString(d),
	}, nil
}

const secp256k1CurveName = "secp256k1"

func newSecp256k1Key(rng io.Reader) (*secp256k1.PrivateKey, error) {
	buf := make(crypto.Secret, 32)
	defer buf.Wipe()

	for {
		if _, err := io.ReadFull(rng, buf); err != nil {
			return nil, fmt.Errorf("generate secp256k1 key failed: %w", err)
		}
		var scalar secp256k1.ModNScalar
		overflow := scalar.SetByteSlice(buf)
		if overflow || scalar.IsZero() {
			scalar.Zero()
			continue
		}
		return secp256k1.NewPrivateKey(&scalar), nil
	}
}
