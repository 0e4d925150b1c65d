package jose

import (
	"encoding/json"
	"fmt"

	"github.com/joncooperworks/keyforge/crypto"
)

// Usage is the intended use of a key. It is rendered into a JWK "use" member as its Code.
type Usage string

const (
	Encryption Usage = "Encryption"
	Signature  Usage = "Signature"
)

// Usages returns both usages.
func Usages() []Usage {
	return []Usage{Encryption, Signature}
}

// Code returns the three letter JOSE code, "enc" or "sig".
func (u Usage) Code() string {
	switch u {
	case Encryption:
		return "enc"
	case Signature:
		return "sig"
	default:
		return ""
	}
}

func (u *Usage) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("usage must be a string: %w", err)
	}
	if Usage(s).Code() == "" {
		return fmt.Errorf("%w: key usage %q", crypto.ErrUnsupported, s)
	}
	*u = Usage(s)
	return nil
}

// Operation is a JWK "key_ops" value.
type Operation string

const (
	Sign       Operation = "sign"
	Verify     Operation = "verify"
	Encrypt    Operation = "encrypt"
	Decrypt    Operation = "decrypt"
	WrapKey    Operation = "wrapKey"
	UnwrapKey  Operation = "unwrapKey"
	DeriveKey  Operation = "deriveKey"
	DeriveBits Operation = "deriveBits"
)

// Operations returns every key operation.
func Operations() []Operation {
	return []Operation{Sign, Verify, Encrypt, Decrypt, WrapKey, UnwrapKey, DeriveKey, DeriveBits}
}

func (o *Operation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("key operation must be a string: %w", err)
	}
	for _, op := range Operations() {
		if string(op) == s {
			*o = op
			return nil
		}
	}
	return fmt.Errorf("%w: key operation %q", crypto.ErrUnsupported, s)
}
