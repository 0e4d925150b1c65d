package keystore

import (
	"errors"
	"time"

	"github.com/joncooperworks/keyforge/crypto"
)

// ErrKeyNotFound is returned when no entry is stored under the requested id.
var ErrKeyNotFound = errors.New("key not found")

// Keystore persists encoded key pairs by id.
type Keystore interface {
	// Put stores an entry under id, replacing any previous entry.
	Put(id string, entry *Entry) error
	// Get returns the entry stored under id, or ErrKeyNotFound.
	Get(id string) (*Entry, error)
	// List returns all stored ids in ascending order.
	List() ([]string, error)
	// Delete removes the entry stored under id, or returns ErrKeyNotFound.
	Delete(id string) error
}

// Entry is one stored key pair together with the format both halves are encoded in.
//
// Either half may be empty. PrivateKey is a crypto.Secret: callers that Get an entry
// own it and should Wipe it when done.
type Entry struct {
	// Format is the encoding of both PrivateKey and PublicKey.
	Format crypto.AsymmetricKeyFormat `json:"format"`
	// Algorithm is a free-form description of the key, e.g. "rsa-2048" or "nistp256".
	Algorithm string `json:"algorithm,omitempty"`
	// PrivateKey is the encoded private key.
	PrivateKey crypto.Secret `json:"privateKey,omitempty"`
	// PublicKey is the encoded public key.
	PublicKey []byte `json:"publicKey,omitempty"`
	// CreatedAt is set by Put when zero.
	CreatedAt time.Time `json:"createdAt"`
}

// Wipe clears the private key of the entry.
func (e *Entry) Wipe() {
	if e != nil {
		e.PrivateKey.Wipe()
	}
}

func validate(id string, entry *Entry) error {
	if id == "" {
		return errors.New("key id cannot be empty")
	}
	if entry == nil {
		return errors.New("entry cannot be nil")
	}
	if !entry.Format.Valid() {
		return errors.New("entry format is not set")
	}
	if len(entry.PrivateKey) == 0 && len(entry.PublicKey) == 0 {
		return errors.New("entry holds no key")
	}
	return nil
}
