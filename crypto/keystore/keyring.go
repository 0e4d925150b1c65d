package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/99designs/keyring"

	"github.com/joncooperworks/keyforge/crypto"
)

func init() {
	RegisterKeystore("keyring", NewKeyringKeystore)
}

// KeyringKeystore implements Keystore on top of the OS keyring
// (Keychain, Secret Service, KWallet, Credential Manager) or an encrypted file.
type KeyringKeystore struct {
	ring keyring.Keyring
}

// NewKeyringKeystore opens the keyring for cfg.ServiceName.
// When cfg.FileDir is set only the encrypted file backend is used, unlocked with cfg.Password.
func NewKeyringKeystore(cfg Config) (Keystore, error) {
	ringCfg := keyring.Config{
		ServiceName: cfg.ServiceName,
	}
	if cfg.FileDir != "" {
		ringCfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		ringCfg.FileDir = cfg.FileDir
		ringCfg.FilePasswordFunc = keyring.FixedStringPrompt(cfg.Password)
	}

	ring, err := keyring.Open(ringCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &KeyringKeystore{ring: ring}, nil
}

// Put stores the entry as JSON in the keyring.
func (k *KeyringKeystore) Put(id string, entry *Entry) error {
	if err := validate(id, entry); err != nil {
		return err
	}
	stored := *entry
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal entry: %w", crypto.ErrSerializationFailure, err)
	}
	defer crypto.Secret(data).Wipe()

	err = k.ring.Set(keyring.Item{
		Key:         id,
		Data:        data,
		Label:       id,
		Description: fmt.Sprintf("keyforge %s key (%s)", stored.Algorithm, stored.Format),
	})
	if err != nil {
		return fmt.Errorf("failed to store key in keyring: %w", err)
	}
	return nil
}

// Get loads and decodes the entry stored under id.
func (k *KeyringKeystore) Get(id string) (*Entry, error) {
	item, err := k.ring.Get(id)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key from keyring: %w", err)
	}
	defer crypto.Secret(item.Data).Wipe()

	var entry Entry
	if err := json.Unmarshal(item.Data, &entry); err != nil {
		return nil, fmt.Errorf("%w: failed to decode entry %s: %w", crypto.ErrSerializationFailure, id, err)
	}
	return &entry, nil
}

// List returns all ids stored in the keyring for this service.
func (k *KeyringKeystore) List() ([]string, error) {
	keys, err := k.ring.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys from keyring: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes the entry stored under id.
func (k *KeyringKeystore) Delete(id string) error {
	err := k.ring.Remove(id)
	if errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to remove key from keyring: %w", err)
	}
	return nil
}
