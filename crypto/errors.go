package crypto

import "errors"

// Error kinds returned by the codec, the padding resolver and the key generators.
// Every error returned by this package wraps exactly one of these, so callers can
// branch with errors.Is while the message still names the step that failed.
var (
	// ErrInvalidKeyEncoding is returned for malformed PEM or DER input, PEM input that
	// is not valid UTF-8, or a format tag that does not match the actual content.
	ErrInvalidKeyEncoding = errors.New("invalid key encoding")

	// ErrEncodingFailure is returned when a key cannot be marshalled into the requested format.
	ErrEncodingFailure = errors.New("key encoding failed")

	// ErrUnsupported is returned when an algorithm or key family has no defined semantics
	// in the requested role, e.g. a PKCS#1 encoding of an elliptic curve key.
	ErrUnsupported = errors.New("unsupported")

	// ErrEncryptionFailure is returned when the RSA primitive rejects an encryption.
	ErrEncryptionFailure = errors.New("encryption failed")

	// ErrDecryptionFailure is returned when the RSA primitive rejects a decryption.
	// It deliberately carries no detail beyond the primitive's own error.
	ErrDecryptionFailure = errors.New("decryption failed")

	// ErrSerializationFailure is returned when JSON or JWK construction fails.
	ErrSerializationFailure = errors.New("serialization failed")

	// ErrKeySizeInvalid is returned when an RSA key size is missing or not a supported tier.
	ErrKeySizeInvalid = errors.New("invalid key size")
)
