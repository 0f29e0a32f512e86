package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestSealOpen(t *testing.T) {
	box, err := NewBoxFromHex(testKey)
	require.NoError(t, err)

	env, err := box.SealString(`{"refresh_token":"abc"}`)
	require.NoError(t, err)

	parts := strings.Split(env, ":")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], ivSize*2)
	assert.Len(t, parts[2], tagSize*2)

	got, err := box.OpenString(env)
	require.NoError(t, err)
	assert.Equal(t, `{"refresh_token":"abc"}`, got)
}

func TestSeal_FreshIV(t *testing.T) {
	box, err := NewBoxFromHex(testKey)
	require.NoError(t, err)

	a, err := box.SealString("same")
	require.NoError(t, err)
	b, err := box.SealString("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpen_WrongKey(t *testing.T) {
	box, err := NewBoxFromHex(testKey)
	require.NoError(t, err)
	env, err := box.SealString("secret")
	require.NoError(t, err)

	other, err := NewBoxFromHex(strings.Repeat("ff", 32))
	require.NoError(t, err)
	_, err = other.OpenString(env)
	assert.Error(t, err)
}

func TestOpen_TamperedCiphertext(t *testing.T) {
	box, err := NewBoxFromHex(testKey)
	require.NoError(t, err)
	env, err := box.SealString("secret")
	require.NoError(t, err)

	parts := strings.Split(env, ":")
	ct, _ := hex.DecodeString(parts[1])
	ct[0] ^= 0xff
	parts[1] = hex.EncodeToString(ct)

	_, err = box.OpenString(strings.Join(parts, ":"))
	assert.Error(t, err)
}

func TestOpen_SixteenByteIV(t *testing.T) {
	key, _ := hex.DecodeString(testKey)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	aead, err := cipher.NewGCMWithNonceSize(block, 16)
	require.NoError(t, err)

	iv := []byte("0123456789abcdef")
	sealed := aead.Seal(nil, iv, []byte("legacy"), nil)
	env := hex.EncodeToString(iv) + ":" +
		hex.EncodeToString(sealed[:len(sealed)-16]) + ":" +
		hex.EncodeToString(sealed[len(sealed)-16:])

	box, err := NewBox(key)
	require.NoError(t, err)
	got, err := box.OpenString(env)
	require.NoError(t, err)
	assert.Equal(t, "legacy", got)
}

func TestOpen_Malformed(t *testing.T) {
	box, err := NewBoxFromHex(testKey)
	require.NoError(t, err)

	for _, env := range []string{"", "abc", "zz:00:00", "00112233:00:11", "a:b:c:d"} {
		_, err := box.OpenString(env)
		assert.ErrorIs(t, err, ErrInvalidEnvelope, env)
	}
}

func TestNewBox_InvalidKey(t *testing.T) {
	_, err := NewBoxFromHex("abcd")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = NewBoxFromHex(strings.Repeat("g", 64))
	assert.ErrorIs(t, err, ErrInvalidKey)
}
