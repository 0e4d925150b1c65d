package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// KeyTuple is an ordered (private, public) pair of encoded keys.
//
// A side that was not requested is an empty, non-nil buffer, never nil, so callers can tell
// "not requested" apart from a failure. It marshals to JSON as a two-element array.
type KeyTuple struct {
	Private Secret
	Public  []byte
}

// Wipe clears the private half.
func (t KeyTuple) Wipe() {
	t.Private.Wipe()
}

func (t KeyTuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][]byte{nonNil(t.Private), nonNil(t.Public)})
}

func (t *KeyTuple) UnmarshalJSON(data []byte) error {
	var pair [2][]byte
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: key tuple: %w", ErrSerializationFailure, err)
	}
	t.Private = Secret(nonNil(pair[0]))
	t.Public = nonNil(pair[1])
	return nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// Transfer re-encodes an existing key pair from one format to another without touching the
// key material.
//
// The two sides are independent. An empty input produces an empty output slot. A present
// side is decoded with from and encoded with to. Both sides are always attempted; if either
// fails, the returned error joins the failures and the tuple still carries whatever the
// other side produced. Decoded private keys are wiped before returning.
func Transfer(privateKey, publicKey []byte, from, to AsymmetricKeyFormat) (KeyTuple, error) {
	tuple := KeyTuple{Private: Secret{}, Public: []byte{}}
	var errs []error

	if len(privateKey) > 0 {
		out, err := transferPrivate(privateKey, from, to)
		if err != nil {
			errs = append(errs, fmt.Errorf("transfer private key: %w", err))
		} else {
			tuple.Private = out
		}
	}

	if len(publicKey) > 0 {
		out, err := transferPublic(publicKey, from, to)
		if err != nil {
			errs = append(errs, fmt.Errorf("transfer public key: %w", err))
		} else {
			tuple.Public = out
		}
	}

	return tuple, errors.Join(errs...)
}

func transferPrivate(b []byte, from, to AsymmetricKeyFormat) (Secret, error) {
	key, err := DecodePrivateKey(b, from)
	if err != nil {
		return nil, err
	}
	defer WipePrivateKey(key)

	return EncodePrivateKey(key, to)
}

func transferPublic(b []byte, from, to AsymmetricKeyFormat) ([]byte, error) {
	key, err := DecodePublicKey(b, from)
	if err != nil {
		return nil, err
	}
	return EncodePublicKey(key, to)
}
