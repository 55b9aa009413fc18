package securestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// WriteSnapshot marshals v as JSON and replaces path atomically. With a
// non-empty secret the payload is sealed in an envelope first.
func WriteSnapshot(path, secret string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if strings.TrimSpace(secret) != "" {
		payload, err = Encrypt(secret, payload)
		if err != nil {
			return err
		}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// ReadSnapshot loads a file written by WriteSnapshot into v. An encrypted
// file read without a secret, or a plaintext file read with one, is rejected.
func ReadSnapshot(path, secret string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	encrypted := IsEncrypted(raw)
	switch {
	case strings.TrimSpace(secret) != "" && !encrypted:
		return ErrPlaintextData
	case strings.TrimSpace(secret) == "" && encrypted:
		return ErrSecretRequired
	case encrypted:
		raw, err = Decrypt(secret, raw)
		if err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, v)
}
