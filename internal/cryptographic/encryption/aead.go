package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"cryptchat/internal/common"
)

// KeySize is the AES-256 key length every deployment key must have.
const KeySize = 32

// AEADEncrypt seals plaintext with AES-GCM under key. A fresh random nonce is
// drawn per call, so encrypting the same plaintext twice yields different
// ciphertexts. key must be 16/24/32 bytes; we generate 32-byte keys.
func AEADEncrypt(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("rand.Read nonce: %w", err)
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)
	// return nonce || ciphertext
	return append(nonce, ciphertext...), nil
}

// AEADDecrypt opens nonce||ciphertext produced by AEADEncrypt. Any
// authentication failure (wrong key, truncation, tampering) comes back as
// common.ErrInvalidCiphertext, never as partially decrypted data.
func AEADDecrypt(key, nonceAndCiphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	ns := aead.NonceSize()
	if len(nonceAndCiphertext) < ns {
		return nil, fmt.Errorf("%w: ciphertext too short", common.ErrInvalidCiphertext)
	}
	nonce := nonceAndCiphertext[:ns]
	ct := nonceAndCiphertext[ns:]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidCiphertext, err)
	}
	return plain, nil
}
