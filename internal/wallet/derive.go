package wallet

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"
)

const hkdfInfoSecp256k1 = "lor/wallet/secp256k1/v1"

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// DeriveKey turns a BIP-39 mnemonic into a secp256k1 signing key. The same
// mnemonic and passphrase always produce the same key.
func DeriveKey(mnemonic, passphrase string) (*ecdsa.PrivateKey, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	defer zeroBytes(seed)

	reader := hkdf.New(sha256.New, seed, nil, []byte(hkdfInfoSecp256k1))
	candidate := make([]byte, 32)
	defer zeroBytes(candidate)
	// A candidate outside the curve order is astronomically unlikely; keep
	// drawing from the same stream until one is valid.
	for i := 0; i < 8; i++ {
		if _, err := io.ReadFull(reader, candidate); err != nil {
			return nil, err
		}
		key, err := crypto.ToECDSA(candidate)
		if err == nil {
			return key, nil
		}
	}
	return nil, fmt.Errorf("derive key: no valid scalar")
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
