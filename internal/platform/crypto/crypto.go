// Package crypto seals credential secrets before they leave the process.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// sealedPrefix marks a sealed value. Values without it are plaintext written
// before a key was configured and are returned unchanged by Open.
const sealedPrefix = "enc:v1:"

var errCiphertextTooShort = errors.New("ciphertext too short")

type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

// AESGCM seals with AES-GCM and a random nonce per value.
type AESGCM struct {
	gcm cipher.AEAD
}

// NewAESGCM expects a hex encoded 16, 24 or 32 byte key.
func NewAESGCM(hexKey string) (*AESGCM, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key hex: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &AESGCM{gcm: gcm}, nil
}

// Seal leaves empty values empty so unset fields stay recognisable.
func (a *AESGCM) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, a.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// nonce || ciphertext || tag
	sealed := a.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + hex.EncodeToString(sealed), nil
}

func (a *AESGCM) Open(value string) (string, error) {
	encoded, ok := strings.CutPrefix(value, sealedPrefix)
	if !ok {
		return value, nil
	}

	buf, err := hex.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode sealed value: %w", err)
	}

	nonceSize := a.gcm.NonceSize()
	if len(buf) < nonceSize {
		return "", errCiphertextTooShort
	}

	plain, err := a.gcm.Open(nil, buf[:nonceSize], buf[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plain), nil
}

// Plaintext stores values as they are.
type Plaintext struct{}

func (Plaintext) Seal(plaintext string) (string, error) { return plaintext, nil }
func (Plaintext) Open(value string) (string, error)     { return value, nil }

// IsSealed reports whether value was produced by a sealing Sealer.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}
