package crypto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsymmetricKeyFormat_JSON(t *testing.T) {
	for _, f := range Formats() {
		data, err := json.Marshal(f)
		require.NoError(t, err)
		assert.Equal(t, `"`+f.String()+`"`, string(data))

		var got AsymmetricKeyFormat
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, f, got)
	}

	var f AsymmetricKeyFormat
	assert.ErrorIs(t, json.Unmarshal([]byte(`"pkcs8-pem"`), &f), ErrUnsupported)

	_, err := json.Marshal(AsymmetricKeyFormat(0))
	assert.Error(t, err)
}

func TestAsymmetricKeyFormat_Predicates(t *testing.T) {
	assert.True(t, Pkcs1Pem.IsPEM())
	assert.True(t, Pkcs8Pem.IsPEM())
	assert.False(t, Pkcs1Der.IsPEM())
	assert.False(t, Pkcs8Der.IsPEM())

	assert.True(t, Pkcs1Der.IsPKCS1())
	assert.False(t, Pkcs8Pem.IsPKCS1())
	assert.False(t, AsymmetricKeyFormat(9).Valid())
	assert.Equal(t, "AsymmetricKeyFormat(9)", AsymmetricKeyFormat(9).String())
}
