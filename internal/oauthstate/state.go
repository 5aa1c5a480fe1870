// Package oauthstate issues and validates the signed state parameter used to
// protect the OAuth 2.0 redirect flows against CSRF and replay.
package oauthstate

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Expiry bounds how long an issued state stays redeemable.
const Expiry = 10 * time.Minute

// signatureLen is 32 hex characters (128 bits), per OWASP guidance for
// truncated HMAC signatures.
const signatureLen = 32

var ErrSecretMissing = errors.New("oauth state secret must be configured")

// Manager signs states as base64url("timestamp:nonce:signature") and tracks
// redeemed nonces in a NonceStore so each state is single-use.
type Manager struct {
	secret []byte
	store  NonceStore
	now    func() time.Time
}

func NewManager(secret string, store NonceStore) *Manager {
	if store == nil {
		store = NewMemoryNonceStore(time.Minute)
	}
	return &Manager{
		secret: []byte(secret),
		store:  store,
		now:    time.Now,
	}
}

// Generate issues a fresh time-bound state parameter.
func (m *Manager) Generate() (string, error) {
	if len(m.secret) == 0 {
		return "", ErrSecretMissing
	}

	nonceBytes := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, nonceBytes); err != nil {
		return "", err
	}
	nonce := base64.RawURLEncoding.EncodeToString(nonceBytes)

	payload := fmt.Sprintf("%d:%s", m.now().Unix(), nonce)
	state := payload + ":" + m.sign(payload)

	return base64.RawURLEncoding.EncodeToString([]byte(state)), nil
}

// Validate checks signature and expiry, then consumes the nonce. A state that
// fails any check, or that was already redeemed, is rejected.
func (m *Manager) Validate(ctx context.Context, state string) bool {
	if len(m.secret) == 0 {
		return false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return false
	}

	parts := strings.Split(string(decoded), ":")
	if len(parts) != 3 {
		return false
	}
	timestampStr, nonce, receivedSignature := parts[0], parts[1], parts[2]

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return false
	}

	payload := timestampStr + ":" + nonce
	expectedSignature := m.sign(payload)

	// Constant-time comparison to prevent timing attacks
	if !hmac.Equal([]byte(receivedSignature), []byte(expectedSignature)) {
		return false
	}

	if m.now().After(time.Unix(timestamp, 0).Add(Expiry)) {
		return false
	}

	fresh, err := m.store.Consume(ctx, nonce, Expiry)
	if err != nil {
		return false
	}
	return fresh
}

func (m *Manager) sign(payload string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))[:signatureLen]
}
