package jose

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/x25519"

	"github.com/joncooperworks/keyforge/crypto"
)

// ErrSignatureInvalid is returned when a JWS does not verify under the given key.
var ErrSignatureInvalid = errors.New("jws signature invalid")

// SignRequest describes a compact JWS to produce.
type SignRequest struct {
	// Header is a JSON object whose members are copied into the protected header.
	// "alg" is always set from Algorithm. Empty means no extra members.
	Header string `json:"header"`
	// Payload must be a JSON document. It is signed exactly as given.
	Payload string `json:"payload"`
	// Secret is the signing key as a JWK JSON document. Its family must match Algorithm.
	// It is ignored for dir, which produces an unsecured JWS.
	Secret string `json:"secret"`
	// Algorithm must have a signing scheme (see SigningScheme).
	Algorithm Algorithm `json:"jwa"`
}

// SignJWS produces a compact JWS for req.
//
// dir produces an unsecured token ("alg":"none", empty signature). ES256K is signed with
// deterministic secp256k1 ECDSA; every other scheme is signed with jwx.
func SignJWS(req *SignRequest) (string, error) {
	if req == nil {
		return "", errors.New("request cannot be nil")
	}
	scheme, err := SigningScheme(req.Algorithm)
	if err != nil {
		return "", err
	}
	header, err := parseHeader(req.Header)
	if err != nil {
		return "", err
	}
	if !json.Valid([]byte(req.Payload)) {
		return "", fmt.Errorf("%w: invalid payload: not a json document", crypto.ErrSerializationFailure)
	}
	payload := []byte(req.Payload)

	switch scheme {
	case jwa.NoSignature:
		return compact(header, scheme, payload, func([]byte) ([]byte, error) { return nil, nil })
	case jwa.ES256K:
		key, err := parseSecp256k1(req.Secret, true)
		if err != nil {
			return "", err
		}
		defer key.priv.Zero()
		return compact(header, scheme, payload, func(input []byte) ([]byte, error) {
			digest := sha256.Sum256(input)
			sig := secpecdsa.SignCompact(key.priv, digest[:], false)
			return sig[1:], nil
		})
	}

	kt, _ := req.Algorithm.KeyType()
	key, err := parseSigningKey(req.Secret, req.Algorithm, kt)
	if err != nil {
		return "", err
	}

	hdrs := jws.NewHeaders()
	for name, value := range header {
		if name == jws.AlgorithmKey {
			continue
		}
		if err := hdrs.Set(name, value); err != nil {
			return "", fmt.Errorf("%w: invalid header member %q: %w", crypto.ErrSerializationFailure, name, err)
		}
	}

	out, err := jws.Sign(payload, jws.WithKey(scheme, key, jws.WithProtectedHeaders(hdrs)))
	if err != nil {
		return "", fmt.Errorf("%w: sign %s jws failed: %w", crypto.ErrSerializationFailure, scheme, err)
	}
	return string(out), nil
}

// VerifyJWS verifies a compact JWS under the JWK in secret and returns its payload.
// A private JWK is accepted; only its public half is used.
func VerifyJWS(token, secret string, alg Algorithm) ([]byte, error) {
	scheme, err := SigningScheme(alg)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case jwa.NoSignature:
		_, payload, sig, _, err := splitCompact(token, scheme)
		if err != nil {
			return nil, err
		}
		if len(sig) != 0 {
			return nil, fmt.Errorf("%w: token is not unsecured", ErrSignatureInvalid)
		}
		return payload, nil
	case jwa.ES256K:
		key, err := parseSecp256k1(secret, false)
		if err != nil {
			return nil, err
		}
		_, payload, sig, input, err := splitCompact(token, scheme)
		if err != nil {
			return nil, err
		}
		if len(sig) != 64 {
			return nil, fmt.Errorf("%w: es256k signature must be 64 bytes", ErrSignatureInvalid)
		}
		var r, s secp256k1.ModNScalar
		if r.SetByteSlice(sig[:32]) || s.SetByteSlice(sig[32:]) {
			return nil, fmt.Errorf("%w: es256k signature out of range", ErrSignatureInvalid)
		}
		digest := sha256.Sum256(input)
		if !secpecdsa.NewSignature(&r, &s).Verify(digest[:], key.pub) {
			return nil, ErrSignatureInvalid
		}
		return payload, nil
	}

	kt, _ := alg.KeyType()
	key, err := parseSigningKey(secret, alg, kt)
	if err != nil {
		return nil, err
	}
	pub, err := jwk.PublicKeyOf(key)
	if err != nil {
		return nil, fmt.Errorf("%w: derive public jwk failed: %w", crypto.ErrInvalidKeyEncoding, err)
	}
	payload, err := jws.Verify([]byte(token), jws.WithKey(scheme, pub))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}
	return payload, nil
}

func parseHeader(s string) (map[string]any, error) {
	header := map[string]any{}
	if strings.TrimSpace(s) == "" {
		return header, nil
	}
	if err := json.Unmarshal([]byte(s), &header); err != nil {
		return nil, fmt.Errorf("%w: invalid header: %w", crypto.ErrSerializationFailure, err)
	}
	if header == nil {
		header = map[string]any{}
	}
	return header, nil
}

// parseSigningKey parses a JWK and checks that it belongs to the algorithm's family.
func parseSigningKey(secret string, alg Algorithm, kt KeyType) (jwk.Key, error) {
	key, err := jwk.ParseKey([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid secret: %w", crypto.ErrInvalidKeyEncoding, err)
	}

	var raw any
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("%w: invalid secret: %w", crypto.ErrInvalidKeyEncoding, err)
	}

	got := familyOf(raw)
	if got != kt {
		return nil, fmt.Errorf("%w: jwk type %s cannot be used with %s", crypto.ErrUnsupported, got, alg)
	}
	if kt == ECDSA {
		if curve := ecdsaCurve(alg); curveOf(raw) != curve.Params().Name {
			return nil, fmt.Errorf("%w: %s needs a %s key", crypto.ErrUnsupported, alg, curve.Params().Name)
		}
	}
	return key, nil
}

func familyOf(raw any) KeyType {
	switch raw.(type) {
	case *rsa.PrivateKey, *rsa.PublicKey:
		return RSA
	case *ecdsa.PrivateKey, *ecdsa.PublicKey:
		return ECDSA
	case ed25519.PrivateKey, ed25519.PublicKey:
		return Ed25519
	case x25519.PrivateKey, x25519.PublicKey:
		return X25519
	case []byte:
		return Symmetric
	default:
		return KeyType(fmt.Sprintf("%T", raw))
	}
}

func curveOf(raw any) string {
	switch k := raw.(type) {
	case *ecdsa.PrivateKey:
		return k.Curve.Params().Name
	case *ecdsa.PublicKey:
		return k.Curve.Params().Name
	default:
		return ""
	}
}

type secp256k1Key struct {
	priv *secp256k1.PrivateKey
	pub  *secp256k1.PublicKey
}

// parseSecp256k1 reads an EC JWK on secp256k1. The private scalar is required when needPrivate is set.
func parseSecp256k1(secret string, needPrivate bool) (*secp256k1Key, error) {
	var members struct {
		Kty string `json:"kty"`
		Crv string `json:"crv"`
		X   string `json:"x"`
		Y   string `json:"y"`
		D   string `json:"d"`
	}
	if err := json.Unmarshal([]byte(secret), &members); err != nil {
		return nil, fmt.Errorf("%w: invalid secret: %w", crypto.ErrInvalidKeyEncoding, err)
	}
	if members.Kty != "EC" || members.Crv != secp256k1CurveName {
		return nil, fmt.Errorf("%w: %s needs an EC %s key", crypto.ErrUnsupported, ES256K, secp256k1CurveName)
	}

	enc := base64.RawURLEncoding
	x, errX := enc.DecodeString(members.X)
	y, errY := enc.DecodeString(members.Y)
	if err := errors.Join(errX, errY); err != nil || len(x) != 32 || len(y) != 32 {
		return nil, fmt.Errorf("%w: invalid secp256k1 public point", crypto.ErrInvalidKeyEncoding)
	}
	pub, err := secp256k1.ParsePubKey(append(append([]byte{0x04}, x...), y...))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid secp256k1 public point: %w", crypto.ErrInvalidKeyEncoding, err)
	}

	key := &secp256k1Key{pub: pub}
	if !needPrivate {
		return key, nil
	}
	if members.D == "" {
		return nil, fmt.Errorf("%w: signing needs a private jwk", crypto.ErrInvalidKeyEncoding)
	}
	d, err := enc.DecodeString(members.D)
	if err != nil || len(d) != 32 {
		return nil, fmt.Errorf("%w: invalid secp256k1 private scalar", crypto.ErrInvalidKeyEncoding)
	}
	defer crypto.Secret(d).Wipe()
	key.priv = secp256k1.PrivKeyFromBytes(d)
	if !key.priv.PubKey().IsEqual(pub) {
		key.priv.Zero()
		return nil, fmt.Errorf("%w: secp256k1 private scalar does not match public point", crypto.ErrInvalidKeyEncoding)
	}
	return key, nil
}

// compact assembles header.payload.signature with the protected header's alg forced to scheme.
func compact(header map[string]any, scheme jwa.SignatureAlgorithm, payload []byte, sign func(input []byte) ([]byte, error)) (string, error) {
	header[jws.AlgorithmKey] = scheme.String()
	hdr, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("%w: invalid header: %w", crypto.ErrSerializationFailure, err)
	}

	enc := base64.RawURLEncoding
	input := enc.EncodeToString(hdr) + "." + enc.EncodeToString(payload)
	sig, err := sign([]byte(input))
	if err != nil {
		return "", fmt.Errorf("%w: sign %s jws failed: %w", crypto.ErrSerializationFailure, scheme, err)
	}
	return input + "." + enc.EncodeToString(sig), nil
}

func splitCompact(token string, scheme jwa.SignatureAlgorithm) (header map[string]any, payload, sig, input []byte, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, nil, nil, nil, fmt.Errorf("%w: compact jws must have 3 parts", crypto.ErrInvalidKeyEncoding)
	}

	enc := base64.RawURLEncoding
	hdr, err := enc.DecodeString(parts[0])
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: decode jws header failed: %w", crypto.ErrInvalidKeyEncoding, err)
	}
	if err := json.Unmarshal(hdr, &header); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: decode jws header failed: %w", crypto.ErrInvalidKeyEncoding, err)
	}
	if header[jws.AlgorithmKey] != scheme.String() {
		return nil, nil, nil, nil, fmt.Errorf("%w: jws alg %v, want %s", ErrSignatureInvalid, header[jws.AlgorithmKey], scheme)
	}
	if payload, err = enc.DecodeString(parts[1]); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: decode jws payload failed: %w", crypto.ErrInvalidKeyEncoding, err)
	}
	if sig, err = enc.DecodeString(parts[2]); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: decode jws signature failed: %w", crypto.ErrInvalidKeyEncoding, err)
	}
	return header, payload, sig, []byte(parts[0] + "." + parts[1]), nil
}
