package securestore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// DecodeSnapshot decrypts a persisted state snapshot when a secret is set.
// Plaintext snapshots written before encryption was enabled still load.
func DecodeSnapshot(secret string, data []byte) ([]byte, error) {
	if secret == "" {
		return data, nil
	}
	decoded, err := Decrypt(secret, data)
	if err != nil {
		if errors.Is(err, ErrLegacyData) {
			return data, nil
		}
		return nil, err
	}
	return decoded, nil
}

// WriteSnapshot marshals v and writes it to path, encrypting when a secret
// is set.
func WriteSnapshot(path, secret string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if secret != "" {
		data, err = Encrypt(secret, data)
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
