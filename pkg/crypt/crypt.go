// Package crypt provides AES-GCM authenticated encryption helpers.
//
// Ciphertext is base64url-encoded and carries its random nonce prefix, so a
// single string can be stored in a cookie or column:
//
//	box, _ := crypt.New(cfg.AppKey)
//	enc, _ := box.Encrypt("session-id")
//	plain, err := box.Decrypt(enc)
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrDecrypt is returned when decryption or authentication fails.
var ErrDecrypt = errors.New("crypt: decryption failed")

// Box seals and opens values under one derived key.
type Box struct {
	gcm cipher.AEAD
}

// New derives a 32-byte AES-256 key from secret via SHA-256.
func New(secret string) (*Box, error) {
	if secret == "" {
		return nil, errors.New("crypt: APP_KEY not configured")
	}
	k := sha256.Sum256([]byte(secret))

	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil, fmt.Errorf("crypt: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: new GCM: %w", err)
	}
	return &Box{gcm: gcm}, nil
}

// Encrypt returns base64url(nonce || ciphertext || tag).
func (b *Box) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, b.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypt: nonce: %w", err)
	}
	sealed := b.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Any tampering yields ErrDecrypt.
func (b *Box) Decrypt(encoded string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecrypt
	}
	n := b.gcm.NonceSize()
	if len(data) < n {
		return "", ErrDecrypt
	}
	plain, err := b.gcm.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// Hash returns a SHA-256 hex digest of the input.
func Hash(input string) string {
	h := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", h)
}
