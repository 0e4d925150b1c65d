package crypto

import (
	"fmt"
	"io"
	"math/big"
)

const randomIDBytes = 20

// RandomID returns a base36 identifier built from 20 bytes read from rng.
func RandomID(rng io.Reader) (string, error) {
	b := make([]byte, randomIDBytes)
	if _, err := io.ReadFull(rng, b); err != nil {
		return "", fmt.Errorf("read random bytes failed: %w", err)
	}
	return new(big.Int).SetBytes(b).Text(36), nil
}
