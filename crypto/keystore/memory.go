package keystore

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"
)

func init() {
	RegisterKeystore("memory", func(Config) (Keystore, error) {
		return NewMemoryKeystore(), nil
	})
}

// MemoryKeystore is an in-memory implementation of Keystore.
// It is used by tests and by callers that want a throwaway store.
// Entries are copied on Put and Get so callers cannot alias stored key material.
type MemoryKeystore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryKeystore creates an empty in-memory keystore.
func NewMemoryKeystore() *MemoryKeystore {
	return &MemoryKeystore{entries: make(map[string]*Entry)}
}

func (m *MemoryKeystore) Put(id string, entry *Entry) error {
	if err := validate(id, entry); err != nil {
		return err
	}
	stored := cloneEntry(entry)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.entries[id]; ok {
		old.Wipe()
	}
	m.entries[id] = stored
	return nil
}

func (m *MemoryKeystore) Get(id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}
	return cloneEntry(entry), nil
}

func (m *MemoryKeystore) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryKeystore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}
	entry.Wipe()
	delete(m.entries, id)
	return nil
}

func cloneEntry(e *Entry) *Entry {
	c := *e
	c.PrivateKey = bytes.Clone(e.PrivateKey)
	c.PublicKey = bytes.Clone(e.PublicKey)
	return &c
}
