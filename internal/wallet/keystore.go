package wallet

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"lor-chain/go-backend/internal/securestore"
)

var ErrKeystoreMissing = errors.New("wallet keystore not found")

type keystoreFile struct {
	Version   int       `json:"version"`
	Mnemonic  string    `json:"mnemonic"`
	CreatedAt time.Time `json:"created_at"`
}

const keystoreVersion = 1

// SaveMnemonic persists the mnemonic sealed under secret.
func SaveMnemonic(path, secret, mnemonic string) error {
	if strings.TrimSpace(secret) == "" {
		return securestore.ErrSecretRequired
	}
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if _, err := DeriveKey(mnemonic, ""); err != nil {
		return err
	}
	return securestore.WriteSnapshot(path, secret, keystoreFile{
		Version:   keystoreVersion,
		Mnemonic:  mnemonic,
		CreatedAt: time.Now().UTC(),
	})
}

func LoadMnemonic(path, secret string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", securestore.ErrSecretRequired
	}
	var file keystoreFile
	if err := securestore.ReadSnapshot(path, secret, &file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrKeystoreMissing
		}
		return "", err
	}
	if file.Version != keystoreVersion {
		return "", fmt.Errorf("unsupported keystore version %d", file.Version)
	}
	if strings.TrimSpace(file.Mnemonic) == "" {
		return "", ErrInvalidMnemonic
	}
	return file.Mnemonic, nil
}

// LoadOrCreateMnemonic returns the stored mnemonic, generating and persisting
// a fresh one when the keystore does not exist yet.
func LoadOrCreateMnemonic(path, secret string) (string, bool, error) {
	mnemonic, err := LoadMnemonic(path, secret)
	if err == nil {
		return mnemonic, false, nil
	}
	if !errors.Is(err, ErrKeystoreMissing) {
		return "", false, err
	}
	mnemonic, err = NewMnemonic()
	if err != nil {
		return "", false, err
	}
	if err := SaveMnemonic(path, secret, mnemonic); err != nil {
		return "", false, err
	}
	return mnemonic, true, nil
}
