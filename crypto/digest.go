package crypto

import (
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/json"
	"fmt"
	"hash"

	"golang.org/x/crypto/sha3"
)

// Digest names a hash function by its kebab-case token.
// The zero value means "not specified".
type Digest string

const (
	SHA1     Digest = "sha1"
	SHA256   Digest = "sha256"
	SHA384   Digest = "sha384"
	SHA512   Digest = "sha512"
	SHA3_256 Digest = "sha3-256"
	SHA3_384 Digest = "sha3-384"
	SHA3_512 Digest = "sha3-512"
)

type digestInfo struct {
	hash crypto.Hash
	new  func() hash.Hash
}

var digests = map[Digest]digestInfo{
	SHA1:     {crypto.SHA1, sha1.New},
	SHA256:   {crypto.SHA256, sha256.New},
	SHA384:   {crypto.SHA384, sha512.New384},
	SHA512:   {crypto.SHA512, sha512.New},
	SHA3_256: {crypto.SHA3_256, sha3.New256},
	SHA3_384: {crypto.SHA3_384, sha3.New384},
	SHA3_512: {crypto.SHA3_512, sha3.New512},
}

// Digests returns every supported digest.
func Digests() []Digest {
	return []Digest{SHA1, SHA256, SHA384, SHA512, SHA3_256, SHA3_384, SHA3_512}
}

// ParseDigest validates a digest token. This is where unknown identifiers are rejected;
// the padding resolver itself never fails.
func ParseDigest(s string) (Digest, error) {
	d := Digest(s)
	if _, ok := digests[d]; !ok {
		return "", fmt.Errorf("%w: digest %q", ErrUnsupported, s)
	}
	return d, nil
}

// Hash returns the crypto.Hash identifier of the digest, or 0 for an unknown digest.
func (d Digest) Hash() crypto.Hash {
	return digests[d].hash
}

// New returns a fresh hash.Hash for the digest. It panics on an unknown digest;
// digests coming from JSON or ParseDigest are always known.
func (d Digest) New() hash.Hash {
	info, ok := digests[d]
	if !ok {
		panic(fmt.Sprintf("crypto: unknown digest %q", string(d)))
	}
	return info.new()
}

// Size returns the output length of the digest in bytes.
func (d Digest) Size() int {
	return d.Hash().Size()
}

func (d *Digest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("digest must be a string: %w", err)
	}
	if s == "" {
		*d = ""
		return nil
	}
	parsed, err := ParseDigest(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
