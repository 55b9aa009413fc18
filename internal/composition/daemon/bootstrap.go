package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"lor-chain/go-backend/internal/securestore"
)

const DefaultDataDir = "go-backend/data"

// ResolveStorage picks the data dir and the storage secret, checking the
// secret against the encrypted files already present. When the current key
// fails to open them, an explicit LOR_LEGACY_STORAGE_PASSPHRASE is tried and
// becomes the stored key.
func ResolveStorage(dataDir string, protected ...string) (resolvedDir, secret string, err error) {
	resolvedDir = strings.TrimSpace(dataDir)
	if resolvedDir == "" {
		resolvedDir = DefaultDataDir
	}

	secret, err = StoragePassphrase(resolvedDir, protected...)
	if err != nil {
		if !errors.Is(err, ErrLegacyStorageSecretRequired) {
			return "", "", err
		}
		secret = LegacyMigrationSecret()
		if secret == "" {
			return "", "", err
		}
		if werr := WriteStorageKey(resolvedDir, secret); werr != nil {
			return "", "", werr
		}
	}

	err = verifySecret(resolvedDir, secret, protected)
	if err == nil {
		return resolvedDir, secret, nil
	}
	if !errors.Is(err, securestore.ErrAuthFailed) {
		return "", "", err
	}
	legacySecret := LegacyMigrationSecret()
	if legacySecret == "" || legacySecret == secret {
		return "", "", fmt.Errorf(
			"storage authentication failed: set %s to correct secret or %s for explicit migration: %w",
			storagePassphraseEnv,
			legacyMigrationSecretEnv,
			err,
		)
	}
	if err := verifySecret(resolvedDir, legacySecret, protected); err != nil {
		return "", "", err
	}
	if werr := WriteStorageKey(resolvedDir, legacySecret); werr != nil {
		return "", "", werr
	}
	return resolvedDir, legacySecret, nil
}

// verifySecret decrypts every protected file that exists.
func verifySecret(dataDir, secret string, protected []string) error {
	for _, name := range protected {
		p := name
		if !filepath.IsAbs(p) {
			p = filepath.Join(dataDir, name)
		}
		var discard map[string]any
		err := securestore.ReadSnapshot(p, secret, &discard)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return err
	}
	return nil
}
