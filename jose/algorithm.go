// Package jose maps JOSE algorithm identifiers to key families and produces JSON Web Keys
// and JSON Web Signatures for them.
//
// The algorithm registry is a set of total functions over the closed Algorithm enumeration.
// Every algorithm belongs to exactly one KeyType, and every KeyType has exactly one default
// algorithm. Errors wrap the sentinel kinds of the crypto package.
package jose

import (
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"

	"github.com/joncooperworks/keyforge/crypto"
)

// Algorithm is a JOSE algorithm identifier ("alg" or "enc" value).
type Algorithm string

const (
	Dir          Algorithm = "dir"
	A128KW       Algorithm = "A128KW"
	A192KW       Algorithm = "A192KW"
	A256KW       Algorithm = "A256KW"
	A128GCM      Algorithm = "A128GCM"
	A192GCM      Algorithm = "A192GCM"
	A256GCM      Algorithm = "A256GCM"
	A128GCMKW    Algorithm = "A128GCMKW"
	A192GCMKW    Algorithm = "A192GCMKW"
	A256GCMKW    Algorithm = "A256GCMKW"
	A128CBCHS256 Algorithm = "A128CBC-HS256"
	A192CBCHS384 Algorithm = "A192CBC-HS384"
	A256CBCHS512 Algorithm = "A256CBC-HS512"
	HS256        Algorithm = "HS256"
	HS384        Algorithm = "HS384"
	HS512        Algorithm = "HS512"

	ES256  Algorithm = "ES256"
	ES384  Algorithm = "ES384"
	ES512  Algorithm = "ES512"
	ES256K Algorithm = "ES256K"

	RS256      Algorithm = "RS256"
	RS384      Algorithm = "RS384"
	RS512      Algorithm = "RS512"
	PS256      Algorithm = "PS256"
	PS384      Algorithm = "PS384"
	PS512      Algorithm = "PS512"
	RSA1_5     Algorithm = "RSA1_5"
	RSAOAEP    Algorithm = "RSA-OAEP"
	RSAOAEP256 Algorithm = "RSA-OAEP-256"
	RSAOAEP384 Algorithm = "RSA-OAEP-384"
	RSAOAEP512 Algorithm = "RSA-OAEP-512"

	EdDSA Algorithm = "EdDSA"

	ECDHES       Algorithm = "ECDH-ES"
	ECDHESA128KW Algorithm = "ECDH-ES+A128KW"
	ECDHESA192KW Algorithm = "ECDH-ES+A192KW"
	ECDHESA256KW Algorithm = "ECDH-ES+A256KW"
)

// es521Alias is the legacy spelling of ES512 still accepted on input.
const es521Alias = "ES521"

var algorithms = []Algorithm{
	Dir,
	A128KW, A192KW, A256KW,
	A128GCM, A192GCM, A256GCM,
	A128GCMKW, A192GCMKW, A256GCMKW,
	A128CBCHS256, A192CBCHS384, A256CBCHS512,
	HS256, HS384, HS512,
	ES256, ES384, ES512, ES256K,
	RS256, RS384, RS512,
	PS256, PS384, PS512,
	RSA1_5, RSAOAEP, RSAOAEP256, RSAOAEP384, RSAOAEP512,
	EdDSA,
	ECDHES, ECDHESA128KW, ECDHESA192KW, ECDHESA256KW,
}

// Algorithms returns every supported algorithm.
func Algorithms() []Algorithm {
	return append([]Algorithm(nil), algorithms...)
}

// ParseAlgorithm validates an algorithm token.
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == es521Alias {
		return ES512, nil
	}
	alg := Algorithm(s)
	if _, err := alg.KeyType(); err != nil {
		return "", err
	}
	return alg, nil
}

func (a *Algorithm) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("algorithm must be a string: %w", err)
	}
	alg, err := ParseAlgorithm(s)
	if err != nil {
		return err
	}
	*a = alg
	return nil
}

// KeyType returns the key family an algorithm operates on.
// Identifiers outside the enumeration fail with crypto.ErrUnsupported.
func (a Algorithm) KeyType() (KeyType, error) {
	switch a {
	case Dir,
		A128KW, A192KW, A256KW,
		A128GCM, A192GCM, A256GCM,
		A128GCMKW, A192GCMKW, A256GCMKW,
		A128CBCHS256, A192CBCHS384, A256CBCHS512,
		HS256, HS384, HS512:
		return Symmetric, nil
	case ES256, ES384, ES512, ES256K:
		return ECDSA, nil
	case RS256, RS384, RS512, PS256, PS384, PS512,
		RSA1_5, RSAOAEP, RSAOAEP256, RSAOAEP384, RSAOAEP512:
		return RSA, nil
	case EdDSA:
		return Ed25519, nil
	case ECDHES, ECDHESA128KW, ECDHESA192KW, ECDHESA256KW:
		return X25519, nil
	default:
		return "", fmt.Errorf("%w: algorithm %q", crypto.ErrUnsupported, string(a))
	}
}

// SigningScheme narrows an algorithm to its JWS signature algorithm.
//
// EdDSA, ES*, HS*, PS* and RS* map to the matching jwa value and dir maps to the unsecured
// "none" scheme. Key-wrap and content-encryption algorithms fail with crypto.ErrUnsupported
// naming the algorithm.
func SigningScheme(a Algorithm) (jwa.SignatureAlgorithm, error) {
	switch a {
	case EdDSA:
		return jwa.EdDSA, nil
	case ES256:
		return jwa.ES256, nil
	case ES256K:
		return jwa.ES256K, nil
	case ES384:
		return jwa.ES384, nil
	case ES512:
		return jwa.ES512, nil
	case HS256:
		return jwa.HS256, nil
	case HS384:
		return jwa.HS384, nil
	case HS512:
		return jwa.HS512, nil
	case PS256:
		return jwa.PS256, nil
	case PS384:
		return jwa.PS384, nil
	case PS512:
		return jwa.PS512, nil
	case RS256:
		return jwa.RS256, nil
	case RS384:
		return jwa.RS384, nil
	case RS512:
		return jwa.RS512, nil
	case Dir:
		return jwa.NoSignature, nil
	default:
		return "", fmt.Errorf("%w: %s has no signing scheme", crypto.ErrUnsupported, string(a))
	}
}

// KeyType is a JWK key family.
type KeyType string

const (
	RSA       KeyType = "rsa"
	ECDSA     KeyType = "ecdsa"
	Ed25519   KeyType = "ed25519"
	X25519    KeyType = "x25519"
	Symmetric KeyType = "symmetric"
)

// KeyTypes returns every key family.
func KeyTypes() []KeyType {
	return []KeyType{RSA, ECDSA, Ed25519, X25519, Symmetric}
}

// DefaultAlgorithm returns the canonical algorithm of a key family.
// It returns the empty Algorithm for an unknown family.
func (k KeyType) DefaultAlgorithm() Algorithm {
	switch k {
	case RSA:
		return RS256
	case ECDSA:
		return ES256
	case Ed25519:
		return EdDSA
	case X25519:
		return ECDHES
	case Symmetric:
		return A256GCM
	default:
		return ""
	}
}

func (k KeyType) valid() bool {
	return k.DefaultAlgorithm() != ""
}

func (k *KeyType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("key type must be a string: %w", err)
	}
	if !KeyType(s).valid() {
		return fmt.Errorf("%w: key type %q", crypto.ErrUnsupported, s)
	}
	*k = KeyType(s)
	return nil
}

// AlgorithmsFor lists the algorithms of a key family in declaration order.
func AlgorithmsFor(k KeyType) []Algorithm {
	var out []Algorithm
	for _, alg := range algorithms {
		if kt, _ := alg.KeyType(); kt == k {
			out = append(out, alg)
		}
	}
	return out
}

// UsagesFor lists the key usages that make sense for a key family.
func UsagesFor(k KeyType) []Usage {
	switch k {
	case RSA, Symmetric:
		return []Usage{Encryption, Signature}
	case ECDSA, Ed25519:
		return []Usage{Signature}
	case X25519:
		return []Usage{Encryption}
	default:
		return nil
	}
}
