package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/joncooperworks/keyforge/crypto/keystore"
)

// Env is the capability set handed to every operation.
type Env struct {
	// Rand is the randomness source for key generation and padding.
	Rand io.Reader
	// Keystore backs the key storage operations. It may be nil.
	Keystore keystore.Keystore
}

// Operation runs one named command with its raw JSON arguments.
//
// Operations must not keep state between calls; the Executor runs many of them at once.
type Operation func(ctx context.Context, env *Env, args json.RawMessage) (any, error)

var (
	// operationRegistry stores operations by name
	operationRegistry = make(map[string]Operation)
	// operationRegistryMu protects concurrent access to the registry
	operationRegistryMu sync.RWMutex
)

// RegisterOperation registers an operation under a name such as "generate_rsa".
//
// The built-in operations register themselves from init(). Registering an existing
// name replaces it.
func RegisterOperation(name string, op Operation) {
	operationRegistryMu.Lock()
	defer operationRegistryMu.Unlock()
	operationRegistry[name] = op
}

// GetOperation retrieves the operation registered under name.
//
// Returns an error if no operation is registered for the name.
func GetOperation(name string) (Operation, error) {
	operationRegistryMu.RLock()
	defer operationRegistryMu.RUnlock()
	op, ok := operationRegistry[name]
	if !ok {
		return nil, fmt.Errorf("no operation registered with name: %s", name)
	}
	return op, nil
}

// ListRegisteredOperations returns all registered operation names, sorted.
func ListRegisteredOperations() []string {
	operationRegistryMu.RLock()
	defer operationRegistryMu.RUnlock()
	names := make([]string, 0, len(operationRegistry))
	for name := range operationRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
