package secret

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBox(t *testing.T) *Box {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	b, err := New(key)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func TestRoundTrip(t *testing.T) {
	b := newBox(t)

	ct, err := b.Encrypt("hunter2")
	require.NoError(t, err)
	assert.NotContains(t, ct, "hunter2")

	pt, err := b.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pt)
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	b := newBox(t)
	a, err := b.Encrypt("same")
	require.NoError(t, err)
	c, err := b.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	ct, err := newBox(t).Encrypt("secret")
	require.NoError(t, err)

	_, err = newBox(t).Decrypt(ct)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	b := newBox(t)

	_, err := b.Decrypt("not base64!")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = b.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestNilBoxFails(t *testing.T) {
	b, err := New("")
	require.NoError(t, err)
	assert.Nil(t, b)

	_, err = b.Encrypt("x")
	assert.ErrorIs(t, err, ErrKeyMissing)
	_, err = b.Decrypt("x")
	assert.ErrorIs(t, err, ErrKeyMissing)
}

func TestNewRejectsShortKey(t *testing.T) {
	_, err := New(base64.StdEncoding.EncodeToString([]byte("tiny")))
	assert.Error(t, err)

	_, err = New("%%%")
	assert.Error(t, err)
}
