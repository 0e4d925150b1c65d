package executor

import (
	"bytes"
	"context"
	stdcrypto "crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/joncooperworks/keyforge/crypto"
	"github.com/joncooperworks/keyforge/crypto/keystore"
	"github.com/joncooperworks/keyforge/jose"
)

func init() {
	RegisterOperation("generate_rsa", generateRSA)
	RegisterOperation("derive_rsa", deriveFor("rsa", isRSA))
	RegisterOperation("encrypt_rsa", encryptRSA)
	RegisterOperation("decrypt_rsa", decryptRSA)
	RegisterOperation("transfer_key", transferKey)
	RegisterOperation("generate_ecc", generateECC)
	RegisterOperation("derive_ecc", deriveFor("ecc", isECDSA))
	RegisterOperation("generate_edwards", generateEdwards)
	RegisterOperation("derive_edwards", deriveFor("edwards", isEdwards))
	RegisterOperation("ecies", ecies("ecies", crypto.EciesNIST))
	RegisterOperation("ecies_edwards", ecies("ecies_edwards", crypto.EciesX25519))
	RegisterOperation("generate_jwk", generateJWK)
	RegisterOperation("generate_jws", generateJWS)
	RegisterOperation("verify_jws", verifyJWS)
	RegisterOperation("random_id", randomID)

	RegisterOperation("key_format", listing(crypto.Formats))
	RegisterOperation("digests", listing(crypto.Digests))
	RegisterOperation("rsa_key_size", listing(crypto.RsaKeySizes))
	RegisterOperation("rsa_encryption_padding", listing(crypto.Paddings))
	RegisterOperation("elliptic_curve", listing(crypto.EccCurves))
	RegisterOperation("edwards", listing(crypto.EdwardsCurves))
	RegisterOperation("kdfs", listing(crypto.Kdfs))
	RegisterOperation("ecies_enc_alg", listing(crypto.EciesEncryptionAlgorithms))
	RegisterOperation("jwkey_type", listing(jose.KeyTypes))
	RegisterOperation("jwkey_operation", listing(jose.Operations))
	RegisterOperation("jwkey_algorithm", keyTypeListing(jose.AlgorithmsFor))
	RegisterOperation("jwkey_usage", keyTypeListing(jose.UsagesFor))

	RegisterOperation("store_key", storeKey)
	RegisterOperation("load_key", loadKey)
	RegisterOperation("list_keys", listKeys)
	RegisterOperation("delete_key", deleteKey)
}

var errNoKeystore = errors.New("no keystore configured")

// decodeArgs strictly decodes raw into v. Empty arguments decode as {}.
func decodeArgs(name string, raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid %s arguments: %w", name, err)
	}
	return nil
}

type generateRSAArgs struct {
	KeySize crypto.RsaKeySize          `json:"keySize"`
	Format  crypto.AsymmetricKeyFormat `json:"format"`
}

func generateRSA(_ context.Context, env *Env, raw json.RawMessage) (any, error) {
	var args generateRSAArgs
	if err := decodeArgs("generate_rsa", raw, &args); err != nil {
		return nil, err
	}
	return crypto.GenerateRSA(env.Rand, args.KeySize, args.Format)
}

type keyArgs struct {
	Key    []byte                     `json:"key"`
	Format crypto.AsymmetricKeyFormat `json:"format"`
}

func isRSA(k stdcrypto.PrivateKey) bool {
	_, ok := k.(*rsa.PrivateKey)
	return ok
}

func isECDSA(k stdcrypto.PrivateKey) bool {
	_, ok := k.(*ecdsa.PrivateKey)
	return ok
}

func isEdwards(k stdcrypto.PrivateKey) bool {
	switch k.(type) {
	case ed25519.PrivateKey, *ecdh.PrivateKey:
		return true
	}
	return false
}

// deriveFor returns an operation that derives the public half of a private key of one family.
func deriveFor(family string, accept func(stdcrypto.PrivateKey) bool) Operation {
	return func(_ context.Context, _ *Env, raw json.RawMessage) (any, error) {
		var args keyArgs
		if err := decodeArgs("derive_"+family, raw, &args); err != nil {
			return nil, err
		}
		key, err := crypto.DecodePrivateKey(args.Key, args.Format)
		if err != nil {
			return nil, err
		}
		defer crypto.WipePrivateKey(key)
		if !accept(key) {
			return nil, fmt.Errorf("%w: expected a %s private key, got %T", crypto.ErrUnsupported, family, key)
		}
		pub, err := crypto.PublicKeyOf(key)
		if err != nil {
			return nil, err
		}
		return crypto.EncodePublicKey(pub, args.Format)
	}
}

func encryptRSA(_ context.Context, env *Env, raw json.RawMessage) (any, error) {
	var req crypto.RSAEncryptionRequest
	if err := decodeArgs("encrypt_rsa", raw, &req); err != nil {
		return nil, err
	}
	return crypto.EncryptRSAKey(env.Rand, &req)
}

func decryptRSA(_ context.Context, _ *Env, raw json.RawMessage) (any, error) {
	var req crypto.RSAEncryptionRequest
	if err := decodeArgs("decrypt_rsa", raw, &req); err != nil {
		return nil, err
	}
	return crypto.DecryptRSAKey(&req)
}

type eciesArgs struct {
	crypto.EciesRequest
	ForEncryption bool `json:"forEncryption"`
}

// ecies seals to or opens with a key of the given family. forEncryption selects the direction.
func ecies(name string, family crypto.EciesFamily) Operation {
	return func(_ context.Context, env *Env, raw json.RawMessage) (any, error) {
		var args eciesArgs
		if err := decodeArgs(name, raw, &args); err != nil {
			return nil, err
		}
		if args.ForEncryption {
			return crypto.EciesEncryptKey(env.Rand, family, &args.EciesRequest)
		}
		return crypto.EciesDecryptKey(family, &args.EciesRequest)
	}
}

type transferArgs struct {
	PrivateKey []byte                     `json:"privateKey,omitempty"`
	PublicKey  []byte                     `json:"publicKey,omitempty"`
	From       crypto.AsymmetricKeyFormat `json:"from"`
	To         crypto.AsymmetricKeyFormat `json:"to"`
}

func transferKey(_ context.Context, _ *Env, raw json.RawMessage) (any, error) {
	var args transferArgs
	if err := decodeArgs("transfer_key", raw, &args); err != nil {
		return nil, err
	}
	tuple, err := crypto.Transfer(args.PrivateKey, args.PublicKey, args.From, args.To)
	if err != nil {
		tuple.Wipe()
		return nil, err
	}
	return tuple, nil
}

type generateECCArgs struct {
	Curve  crypto.EccCurveName        `json:"curve"`
	Format crypto.AsymmetricKeyFormat `json:"format"`
}

func generateECC(_ context.Context, env *Env, raw json.RawMessage) (any, error) {
	var args generateECCArgs
	if err := decodeArgs("generate_ecc", raw, &args); err != nil {
		return nil, err
	}
	return crypto.GenerateECC(env.Rand, args.Curve, args.Format)
}

type generateEdwardsArgs struct {
	Curve  crypto.EdwardsCurveName    `json:"curve"`
	Format crypto.AsymmetricKeyFormat `json:"format"`
}

func generateEdwards(_ context.Context, env *Env, raw json.RawMessage) (any, error) {
	var args generateEdwardsArgs
	if err := decodeArgs("generate_edwards", raw, &args); err != nil {
		return nil, err
	}
	return crypto.GenerateEdwards(env.Rand, args.Curve, args.Format)
}

func generateJWK(_ context.Context, env *Env, raw json.RawMessage) (any, error) {
	var req jose.GenerateRequest
	if err := decodeArgs("generate_jwk", raw, &req); err != nil {
		return nil, err
	}
	return jose.GenerateJWK(env.Rand, &req)
}

func generateJWS(_ context.Context, _ *Env, raw json.RawMessage) (any, error) {
	var req jose.SignRequest
	if err := decodeArgs("generate_jws", raw, &req); err != nil {
		return nil, err
	}
	return jose.SignJWS(&req)
}

type verifyArgs struct {
	Token     string         `json:"token"`
	JWK       string         `json:"jwk"`
	Algorithm jose.Algorithm `json:"jwa"`
}

func verifyJWS(_ context.Context, _ *Env, raw json.RawMessage) (any, error) {
	var args verifyArgs
	if err := decodeArgs("verify_jws", raw, &args); err != nil {
		return nil, err
	}
	payload, err := jose.VerifyJWS(args.Token, args.JWK, args.Algorithm)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

func randomID(_ context.Context, env *Env, raw json.RawMessage) (any, error) {
	if err := decodeArgs("random_id", raw, &struct{}{}); err != nil {
		return nil, err
	}
	return crypto.RandomID(env.Rand)
}

// listing wraps an enumeration that takes no arguments.
func listing[T any](values func() []T) Operation {
	return func(_ context.Context, _ *Env, raw json.RawMessage) (any, error) {
		if err := decodeArgs("listing", raw, &struct{}{}); err != nil {
			return nil, err
		}
		return values(), nil
	}
}

type keyTypeArgs struct {
	KeyType jose.KeyType `json:"kty"`
}

// keyTypeListing wraps an enumeration scoped to one JWK key type.
func keyTypeListing[T any](values func(jose.KeyType) []T) Operation {
	return func(_ context.Context, _ *Env, raw json.RawMessage) (any, error) {
		var args keyTypeArgs
		if err := decodeArgs("listing", raw, &args); err != nil {
			return nil, err
		}
		if args.KeyType == "" {
			return nil, errors.New("kty is required")
		}
		return values(args.KeyType), nil
	}
}

type storeArgs struct {
	// ID defaults to a random UUID.
	ID string `json:"id,omitempty"`
	keystore.Entry
}

func storeKey(_ context.Context, env *Env, raw json.RawMessage) (any, error) {
	if env.Keystore == nil {
		return nil, errNoKeystore
	}
	var args storeArgs
	if err := decodeArgs("store_key", raw, &args); err != nil {
		return nil, err
	}
	defer args.Entry.Wipe()
	if args.ID == "" {
		args.ID = uuid.NewString()
	}
	if err := env.Keystore.Put(args.ID, &args.Entry); err != nil {
		return nil, fmt.Errorf("failed to store key %s: %w", args.ID, err)
	}
	return args.ID, nil
}

type idArgs struct {
	ID string `json:"id"`
}

func loadKey(_ context.Context, env *Env, raw json.RawMessage) (any, error) {
	if env.Keystore == nil {
		return nil, errNoKeystore
	}
	var args idArgs
	if err := decodeArgs("load_key", raw, &args); err != nil {
		return nil, err
	}
	entry, err := env.Keystore.Get(args.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load key %s: %w", args.ID, err)
	}
	return entry, nil
}

func listKeys(_ context.Context, env *Env, raw json.RawMessage) (any, error) {
	if env.Keystore == nil {
		return nil, errNoKeystore
	}
	if err := decodeArgs("list_keys", raw, &struct{}{}); err != nil {
		return nil, err
	}
	return env.Keystore.List()
}

func deleteKey(_ context.Context, env *Env, raw json.RawMessage) (any, error) {
	if env.Keystore == nil {
		return nil, errNoKeystore
	}
	var args idArgs
	if err := decodeArgs("delete_key", raw, &args); err != nil {
		return nil, err
	}
	if err := env.Keystore.Delete(args.ID); err != nil {
		return nil, fmt.Errorf("failed to delete key %s: %w", args.ID, err)
	}
	return args.ID, nil
}
