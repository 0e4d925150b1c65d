package keystore

import (
	"fmt"
	"sort"
	"sync"
)

// KeystoreFactory opens a keystore for one backend from the keystore section of the config.
type KeystoreFactory func(cfg Config) (Keystore, error)

var (
	registry   = make(map[string]KeystoreFactory)
	registryMu sync.RWMutex
)

// RegisterKeystore makes a backend available to NewKeystore under the name used in
// keystore.backend. Backends call it from init; registering a name twice replaces the
// earlier factory.
func RegisterKeystore(backend string, factory KeystoreFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[backend] = factory
}

// GetKeystoreFactory looks up the factory for backend.
func GetKeystoreFactory(backend string) (KeystoreFactory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[backend]
	if !ok {
		return nil, fmt.Errorf("no keystore factory registered for backend: %s", backend)
	}
	return factory, nil
}

// ListRegisteredBackends names every backend compiled into the binary, in sorted order.
func ListRegisteredBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	backends := make([]string, 0, len(registry))
	for backend := range registry {
		backends = append(backends, backend)
	}
	sort.Strings(backends)
	return backends
}
