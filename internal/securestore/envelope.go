package securestore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	envelopeVersion = 1
	saltSize        = 16
	filePrefix      = "LORENC1\n"
)

var (
	ErrAuthFailed     = errors.New("securestore authentication failed")
	ErrInvalid        = errors.New("securestore envelope is invalid")
	ErrPlaintextData  = errors.New("securestore data is not encrypted")
	ErrSecretRequired = errors.New("securestore secret is required")
)

type kdfParams struct {
	time     uint32
	memoryKB uint32
	threads  uint8
}

var defaultKDF = kdfParams{time: 2, memoryKB: 64 * 1024, threads: 1}

type Envelope struct {
	Version     uint32 `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

// IsEncrypted reports whether data carries the envelope file prefix.
func IsEncrypted(data []byte) bool {
	return strings.HasPrefix(string(data), filePrefix)
}

func Encrypt(secret string, plaintext []byte) ([]byte, error) {
	env, err := Seal(secret, plaintext)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(filePrefix), raw...), nil
}

func Decrypt(secret string, data []byte) ([]byte, error) {
	if !IsEncrypted(data) {
		return nil, ErrPlaintextData
	}
	var env Envelope
	if err := json.Unmarshal(data[len(filePrefix):], &env); err != nil {
		return nil, ErrInvalid
	}
	return Open(secret, &env)
}

// Seal encrypts plaintext with an argon2id-derived XChaCha20-Poly1305 key.
func Seal(secret string, plaintext []byte) (*Envelope, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretRequired
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := deriveKey(secret, salt, defaultKDF)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return &Envelope{
		Version:     envelopeVersion,
		KDF:         "argon2id",
		KDFTime:     defaultKDF.time,
		KDFMemoryKB: defaultKDF.memoryKB,
		KDFThreads:  defaultKDF.threads,
		Salt:        salt,
		Nonce:       nonce,
		Ciphertext:  aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

func Open(secret string, env *Envelope) ([]byte, error) {
	if env == nil || env.Version != envelopeVersion || env.KDF != "argon2id" {
		return nil, ErrInvalid
	}
	if env.KDFThreads == 0 || env.KDFTime == 0 || env.KDFMemoryKB == 0 {
		return nil, ErrInvalid
	}
	key := deriveKey(secret, env.Salt, kdfParams{time: env.KDFTime, memoryKB: env.KDFMemoryKB, threads: env.KDFThreads})
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, ErrInvalid
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func deriveKey(secret string, salt []byte, p kdfParams) []byte {
	return argon2.IDKey([]byte(secret), salt, p.time, p.memoryKB, p.threads, chacha20poly1305.KeySize)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
