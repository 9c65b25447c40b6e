package encryption

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptchat/internal/common"
)

func testKey() []byte {
	return common.GenerateRandByteArray(KeySize)
}

func TestAEADRoundTrip(t *testing.T) {
	key := testKey()

	for _, plaintext := range []string{"hi", "", "こんにちは", "a longer message with spaces and // symbols"} {
		ct, err := AEADEncrypt(key, []byte(plaintext))
		require.NoError(t, err)

		pt, err := AEADDecrypt(key, ct)
		require.NoError(t, err)
		assert.Equal(t, plaintext, string(pt))
	}
}

func TestAEADEncrypt_NonDeterministic(t *testing.T) {
	key := testKey()

	ct1, err := AEADEncrypt(key, []byte("same plaintext"))
	require.NoError(t, err)
	ct2, err := AEADEncrypt(key, []byte("same plaintext"))
	require.NoError(t, err)

	assert.NotEqual(t, ct1, ct2)
}

func TestAEADDecrypt_TamperedByte(t *testing.T) {
	key := testKey()

	ct, err := AEADEncrypt(key, []byte("integrity matters"))
	require.NoError(t, err)

	// flipping any single byte must fail authentication
	for i := range ct {
		mangled := append([]byte(nil), ct...)
		mangled[i] ^= 0x01

		_, err := AEADDecrypt(key, mangled)
		require.Error(t, err, "byte %d", i)
		assert.True(t, errors.Is(err, common.ErrInvalidCiphertext), "byte %d", i)
	}
}

func TestAEADDecrypt_WrongKey(t *testing.T) {
	ct, err := AEADEncrypt(testKey(), []byte("secret"))
	require.NoError(t, err)

	_, err = AEADDecrypt(testKey(), ct)
	assert.ErrorIs(t, err, common.ErrInvalidCiphertext)
}

func TestAEADDecrypt_Truncated(t *testing.T) {
	key := testKey()

	ct, err := AEADEncrypt(key, []byte("secret"))
	require.NoError(t, err)

	_, err = AEADDecrypt(key, ct[:5])
	assert.ErrorIs(t, err, common.ErrInvalidCiphertext)

	_, err = AEADDecrypt(key, nil)
	assert.ErrorIs(t, err, common.ErrInvalidCiphertext)
}
