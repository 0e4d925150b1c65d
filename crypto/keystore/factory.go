package keystore

import "fmt"

// DefaultBackend is used when Config.Backend is empty.
const DefaultBackend = "keyring"

// DefaultServiceName is used when Config.ServiceName is empty.
const DefaultServiceName = "keyforge"

// Config selects and configures a keystore backend.
type Config struct {
	// Backend is a registered backend name ("keyring" or "memory").
	Backend string
	// ServiceName namespaces entries in the OS keyring.
	ServiceName string
	// FileDir, when set, forces the keyring's encrypted file backend in that directory.
	FileDir string
	// Password unlocks the encrypted file backend.
	Password string
}

// NewKeystore creates a keystore for cfg.Backend using the registry.
func NewKeystore(cfg Config) (Keystore, error) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultBackend
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	factory, err := GetKeystoreFactory(cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("unsupported keystore backend: %s", cfg.Backend)
	}
	return factory(cfg)
}
