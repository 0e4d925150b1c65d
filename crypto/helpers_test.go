package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	rsaKeyOnce sync.Once
	rsaKey     *rsa.PrivateKey
	rsaKeyErr  error
)

// testRSAKey returns a 2048-bit key shared by every test in the package.
// Tests that mutate the key must work on cloneRSAKey.
func testRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	rsaKeyOnce.Do(func() {
		rsaKey, rsaKeyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	require.NoError(t, rsaKeyErr)
	return rsaKey
}

func cloneRSAKey(t *testing.T, key *rsa.PrivateKey) *rsa.PrivateKey {
	t.Helper()
	clone, err := x509.ParsePKCS1PrivateKey(x509.MarshalPKCS1PrivateKey(key))
	require.NoError(t, err)
	return clone
}
