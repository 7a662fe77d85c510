package seedvault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const (
	saltSize = 16
	keySize  = 32

	// scrypt cost parameters. N is interactive-grade: encryption happens once
	// per wallet and decryption once per settlement, never in a hot loop.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// ErrDecrypt is returned for any decryption failure. Callers never see
// whether the salt, nonce, or authentication tag was at fault.
var ErrDecrypt = errors.New("seed decryption failed")

// Vault encrypts and decrypts mnemonic seed phrases with a key derived from
// the application encryption secret. Each ciphertext carries its own salt and
// nonce, so encrypting the same phrase twice yields different records.
type Vault struct {
	secret []byte
}

// New builds a Vault from the configured encryption secret.
func New(secret string) (*Vault, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is required")
	}
	return &Vault{secret: []byte(secret)}, nil
}

// Encrypt seals the plaintext and returns base64(salt || nonce || ciphertext).
func (v *Vault) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	aead, err := v.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)

	record := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	record = append(record, salt...)
	record = append(record, nonce...)
	record = append(record, sealed...)

	return base64.StdEncoding.EncodeToString(record), nil
}

// Decrypt opens a record produced by Encrypt and returns the plaintext.
func (v *Vault) Decrypt(encoded string) (string, error) {
	record, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecrypt
	}

	if len(record) < saltSize {
		return "", ErrDecrypt
	}
	salt := record[:saltSize]

	aead, err := v.aead(salt)
	if err != nil {
		return "", ErrDecrypt
	}

	if len(record) < saltSize+aead.NonceSize() {
		return "", ErrDecrypt
	}
	nonce := record[saltSize : saltSize+aead.NonceSize()]
	sealed := record[saltSize+aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}

func (v *Vault) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(v.secret, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	return cipher.NewGCM(block)
}
