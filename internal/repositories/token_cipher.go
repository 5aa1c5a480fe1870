package repositories

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// TokenCipher encrypts OAuth tokens before they reach the credential rows.
// The stored format is base64url([nonce_24][ciphertext+tag]).
type TokenCipher struct {
	secretKey []byte
}

// NewTokenCipher derives a 32-byte key from the configured secret.
func NewTokenCipher(secret string) *TokenCipher {
	key := sha256.Sum256([]byte(secret)) // normalize to 32 bytes

	return &TokenCipher{
		secretKey: key[:],
	}
}

// Encrypt encrypts a token for storage. Empty tokens pass through unchanged.
func (c *TokenCipher) Encrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	aead, err := chacha20poly1305.NewX(c.secretKey)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := aead.Seal(nil, nonce, []byte(token), nil)

	out := append(nonce, ciphertext...)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Decrypt decrypts a stored token.
func (c *TokenCipher) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(encrypted)
	if err != nil {
		return "", err
	}

	if len(raw) < chacha20poly1305.NonceSizeX {
		return "", errors.New("invalid encrypted token")
	}

	nonce := raw[:chacha20poly1305.NonceSizeX]
	ciphertext := raw[chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(c.secretKey)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.New("failed to decrypt token")
	}

	return string(plaintext), nil
}
