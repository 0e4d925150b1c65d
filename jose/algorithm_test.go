package jose

import (
	"encoding/json"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joncooperworks/keyforge/crypto"
)

func TestAlgorithm_KeyTypeIsTotal(t *testing.T) {
	want := map[KeyType][]Algorithm{
		Symmetric: {
			Dir, A128KW, A192KW, A256KW, A128GCM, A192GCM, A256GCM,
			A128GCMKW, A192GCMKW, A256GCMKW, A128CBCHS256, A192CBCHS384, A256CBCHS512,
			HS256, HS384, HS512,
		},
		ECDSA:   {ES256, ES384, ES512, ES256K},
		RSA:     {RS256, RS384, RS512, PS256, PS384, PS512, RSA1_5, RSAOAEP, RSAOAEP256, RSAOAEP384, RSAOAEP512},
		Ed25519: {EdDSA},
		X25519:  {ECDHES, ECDHESA128KW, ECDHESA192KW, ECDHESA256KW},
	}

	seen := map[Algorithm]bool{}
	for _, alg := range Algorithms() {
		require.False(t, seen[alg], "algorithm %s listed twice", alg)
		seen[alg] = true

		kt, err := alg.KeyType()
		require.NoError(t, err, "algorithm %s", alg)
		assert.Contains(t, want[kt], alg)
	}

	total := 0
	for kt, algs := range want {
		total += len(algs)
		assert.Equal(t, algs, AlgorithmsFor(kt), "key type %s", kt)
	}
	assert.Len(t, Algorithms(), total)
	assert.Len(t, Algorithms(), 36)
}

func TestAlgorithm_KeyTypeUnknown(t *testing.T) {
	_, err := Algorithm("HS1").KeyType()
	assert.ErrorIs(t, err, crypto.ErrUnsupported)
}

func TestKeyType_DefaultAlgorithm(t *testing.T) {
	want := map[KeyType]Algorithm{
		RSA:       RS256,
		ECDSA:     ES256,
		Ed25519:   EdDSA,
		X25519:    ECDHES,
		Symmetric: A256GCM,
	}
	for _, kt := range KeyTypes() {
		alg := kt.DefaultAlgorithm()
		assert.Equal(t, want[kt], alg)

		back, err := alg.KeyType()
		require.NoError(t, err)
		assert.Equal(t, kt, back)
	}
	assert.Empty(t, KeyType("dsa").DefaultAlgorithm())
}

func TestSigningScheme(t *testing.T) {
	signing := map[Algorithm]jwa.SignatureAlgorithm{
		EdDSA: jwa.EdDSA,
		ES256: jwa.ES256, ES384: jwa.ES384, ES512: jwa.ES512, ES256K: jwa.ES256K,
		HS256: jwa.HS256, HS384: jwa.HS384, HS512: jwa.HS512,
		PS256: jwa.PS256, PS384: jwa.PS384, PS512: jwa.PS512,
		RS256: jwa.RS256, RS384: jwa.RS384, RS512: jwa.RS512,
		Dir: jwa.NoSignature,
	}

	for _, alg := range Algorithms() {
		t.Run(string(alg), func(t *testing.T) {
			got, err := SigningScheme(alg)
			if want, ok := signing[alg]; ok {
				require.NoError(t, err)
				assert.Equal(t, want, got)
				return
			}
			require.ErrorIs(t, err, crypto.ErrUnsupported)
			assert.Contains(t, err.Error(), string(alg))
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("ES521")
	require.NoError(t, err)
	assert.Equal(t, ES512, alg)

	alg, err = ParseAlgorithm("ECDH-ES+A192KW")
	require.NoError(t, err)
	assert.Equal(t, ECDHESA192KW, alg)

	_, err = ParseAlgorithm("none")
	assert.ErrorIs(t, err, crypto.ErrUnsupported)

	var decoded struct {
		Alg Algorithm `json:"alg"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"alg":"RSA-OAEP-256"}`), &decoded))
	assert.Equal(t, RSAOAEP256, decoded.Alg)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"alg":"rs256"}`), &decoded), crypto.ErrUnsupported)
}

func TestUsagesFor(t *testing.T) {
	assert.Equal(t, []Usage{Encryption, Signature}, UsagesFor(RSA))
	assert.Equal(t, []Usage{Signature}, UsagesFor(ECDSA))
	assert.Equal(t, []Usage{Signature}, UsagesFor(Ed25519))
	assert.Equal(t, []Usage{Encryption}, UsagesFor(X25519))
	assert.Equal(t, []Usage{Encryption, Signature}, UsagesFor(Symmetric))
	assert.Nil(t, UsagesFor("dsa"))
}

func TestUsageAndOperation_JSON(t *testing.T) {
	assert.Equal(t, "enc", Encryption.Code())
	assert.Equal(t, "sig", Signature.Code())

	var u Usage
	require.NoError(t, json.Unmarshal([]byte(`"Signature"`), &u))
	assert.Equal(t, Signature, u)
	assert.ErrorIs(t, json.Unmarshal([]byte(`"sig"`), &u), crypto.ErrUnsupported)

	var ops []Operation
	require.NoError(t, json.Unmarshal([]byte(`["wrapKey","deriveBits"]`), &ops))
	assert.Equal(t, []Operation{WrapKey, DeriveBits}, ops)
	assert.ErrorIs(t, json.Unmarshal([]byte(`["wrap_key"]`), &ops), crypto.ErrUnsupported)

	var kt KeyType
	require.NoError(t, json.Unmarshal([]byte(`"x25519"`), &kt))
	assert.Equal(t, X25519, kt)
	assert.ErrorIs(t, json.Unmarshal([]byte(`"EC"`), &kt), crypto.ErrUnsupported)
}
