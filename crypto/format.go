package crypto

import (
	"encoding/json"
	"fmt"
)

// AsymmetricKeyFormat selects one of the four wire encodings understood by the codec.
//
// The value is a pure tag: it carries no state and only chooses a transcoding branch.
// It is exchanged as the string token returned by String (e.g. "Pkcs8Pem").
type AsymmetricKeyFormat int

const (
	// Pkcs1Pem is an RSA-specific PKCS#1 structure armored as "RSA PRIVATE KEY" / "RSA PUBLIC KEY".
	Pkcs1Pem AsymmetricKeyFormat = iota + 1
	// Pkcs1Der is the binary form of Pkcs1Pem.
	Pkcs1Der
	// Pkcs8Pem is a PKCS#8 private key or SPKI public key armored as "PRIVATE KEY" / "PUBLIC KEY".
	Pkcs8Pem
	// Pkcs8Der is the binary form of Pkcs8Pem.
	Pkcs8Der
)

var formatTokens = map[AsymmetricKeyFormat]string{
	Pkcs1Pem: "Pkcs1Pem",
	Pkcs1Der: "Pkcs1Der",
	Pkcs8Pem: "Pkcs8Pem",
	Pkcs8Der: "Pkcs8Der",
}

// Formats returns every supported format in declaration order.
func Formats() []AsymmetricKeyFormat {
	return []AsymmetricKeyFormat{Pkcs1Pem, Pkcs1Der, Pkcs8Pem, Pkcs8Der}
}

// ParseFormat parses a format token.
func ParseFormat(s string) (AsymmetricKeyFormat, error) {
	for f, token := range formatTokens {
		if token == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: key format %q", ErrUnsupported, s)
}

func (f AsymmetricKeyFormat) String() string {
	if token, ok := formatTokens[f]; ok {
		return token
	}
	return fmt.Sprintf("AsymmetricKeyFormat(%d)", int(f))
}

// Valid reports whether f is one of the four defined formats.
func (f AsymmetricKeyFormat) Valid() bool {
	_, ok := formatTokens[f]
	return ok
}

// IsPEM reports whether the format is text armored.
func (f AsymmetricKeyFormat) IsPEM() bool {
	return f == Pkcs1Pem || f == Pkcs8Pem
}

// IsPKCS1 reports whether the format is the RSA-only PKCS#1 family.
func (f AsymmetricKeyFormat) IsPKCS1() bool {
	return f == Pkcs1Pem || f == Pkcs1Der
}

func (f AsymmetricKeyFormat) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: key format %d", ErrUnsupported, int(f))
	}
	return json.Marshal(f.String())
}

func (f *AsymmetricKeyFormat) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("key format must be a string: %w", err)
	}
	parsed, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// pemLabels returns the PEM block types for the private and public halves of a format.
func (f AsymmetricKeyFormat) pemLabels() (private, public string) {
	if f.IsPKCS1() {
		return "RSA PRIVATE KEY", "RSA PUBLIC KEY"
	}
	return "PRIVATE KEY", "PUBLIC KEY"
}
