package crypto

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/json"
	"fmt"
	"io"
)

// EccCurveName names a NIST curve usable with ECDSA keys in PKCS#8 form.
type EccCurveName string

const (
	NistP256 EccCurveName = "nistp256"
	NistP384 EccCurveName = "nistp384"
	NistP521 EccCurveName = "nistp521"
)

// EccCurves returns the supported curves.
func EccCurves() []EccCurveName {
	return []EccCurveName{NistP256, NistP384, NistP521}
}

// Curve returns the elliptic.Curve for the name, or nil for an unknown name.
func (c EccCurveName) Curve() elliptic.Curve {
	switch c {
	case NistP256:
		return elliptic.P256()
	case NistP384:
		return elliptic.P384()
	case NistP521:
		return elliptic.P521()
	default:
		return nil
	}
}

func (c *EccCurveName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("curve must be a string: %w", err)
	}
	if EccCurveName(s).Curve() == nil {
		return fmt.Errorf("%w: elliptic curve %q", ErrUnsupported, s)
	}
	*c = EccCurveName(s)
	return nil
}

// EdwardsCurveName names a Curve25519 key family.
type EdwardsCurveName string

const (
	// Ed25519 keys sign.
	Ed25519 EdwardsCurveName = "ed25519"
	// X25519 keys agree on shared secrets.
	X25519 EdwardsCurveName = "x25519"
)

// EdwardsCurves returns the supported Curve25519 families.
func EdwardsCurves() []EdwardsCurveName {
	return []EdwardsCurveName{Ed25519, X25519}
}

func (c *EdwardsCurveName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("curve must be a string: %w", err)
	}
	switch EdwardsCurveName(s) {
	case Ed25519, X25519:
		*c = EdwardsCurveName(s)
		return nil
	default:
		return fmt.Errorf("%w: edwards curve %q", ErrUnsupported, s)
	}
}

// GenerateECC generates an ECDSA private key on curve and serializes it in format f.
// Only the Pkcs8 formats can hold EC keys.
func GenerateECC(rng io.Reader, curve EccCurveName, f AsymmetricKeyFormat) (Secret, error) {
	c := curve.Curve()
	if c == nil {
		return nil, fmt.Errorf("%w: elliptic curve %q", ErrUnsupported, string(curve))
	}
	if f.IsPKCS1() {
		return nil, fmt.Errorf("%w: %s cannot hold %s keys", ErrUnsupported, f, curve)
	}

	key, err := ecdsa.GenerateKey(c, rng)
	if err != nil {
		return nil, fmt.Errorf("generate %s key failed: %w", curve, err)
	}
	defer WipePrivateKey(key)

	return EncodePrivateKey(key, f)
}

// GenerateEdwards generates an Ed25519 or X25519 private key and serializes it in format f.
// Only the Pkcs8 formats can hold these keys.
func GenerateEdwards(rng io.Reader, curve EdwardsCurveName, f AsymmetricKeyFormat) (Secret, error) {
	if f.IsPKCS1() {
		return nil, fmt.Errorf("%w: %s cannot hold %s keys", ErrUnsupported, f, curve)
	}

	switch curve {
	case Ed25519:
		_, key, err := ed25519.GenerateKey(rng)
		if err != nil {
			return nil, fmt.Errorf("generate ed25519 key failed: %w", err)
		}
		defer WipePrivateKey(key)
		return EncodePrivateKey(key, f)
	case X25519:
		key, err := ecdh.X25519().GenerateKey(rng)
		if err != nil {
			return nil, fmt.Errorf("generate x25519 key failed: %w", err)
		}
		return EncodePrivateKey(key, f)
	default:
		return nil, fmt.Errorf("%w: edwards curve %q", ErrUnsupported, string(curve))
	}
}
