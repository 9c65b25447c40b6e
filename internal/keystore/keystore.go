// Package keystore manages the single symmetric key every message in a
// deployment is encrypted under. The key lives in one file; losing that file
// makes all stored ciphertext permanently unreadable. There is no rotation.
package keystore

import (
	"errors"
	"fmt"
	"os"

	"cryptchat/internal/common"
	"cryptchat/internal/cryptographic/encryption"
)

type (
	KeyStore struct {
		path string
	}
)

func NewKeyStore(path string) *KeyStore {
	return &KeyStore{path: path}
}

// EnsureKey loads the key file, generating and persisting a fresh key first
// if none exists. Called once at startup, before any encryption happens.
// First-time generation is not guarded against a second process racing it;
// the deployment runs a single process per key file.
func (s *KeyStore) EnsureKey() ([]byte, error) {
	key, err := s.LoadKey()
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, common.ErrKeyNotFound) {
		return nil, err
	}

	key = common.GenerateRandByteArray(encryption.KeySize)
	if err := os.WriteFile(s.path, key, 0o600); err != nil {
		return nil, fmt.Errorf("%w: writing key file: %v", common.ErrStorageUnavailable, err)
	}
	return key, nil
}

// LoadKey reads the previously generated key. A missing file is
// common.ErrKeyNotFound; any other read failure is ErrStorageUnavailable.
func (s *KeyStore) LoadKey() ([]byte, error) {
	key, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrKeyNotFound, s.path)
		}
		return nil, fmt.Errorf("%w: reading key file: %v", common.ErrStorageUnavailable, err)
	}
	if len(key) != encryption.KeySize {
		return nil, fmt.Errorf("%w: key file %s has %d bytes, want %d",
			common.ErrStorageUnavailable, s.path, len(key), encryption.KeySize)
	}
	return key, nil
}
