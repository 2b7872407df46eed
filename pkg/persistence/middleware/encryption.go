package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/ports"
)

// envelopePrefix marks an Output that holds an encrypted entry.
const envelopePrefix = "enc:v1:"

var (
	// ErrInvalidKey is returned for keys that are not 32 bytes.
	ErrInvalidKey = errors.New("encryption key must be 32 bytes (AES-256)")
	// ErrNotEncrypted is returned when a stored entry has no envelope.
	ErrNotEncrypted = errors.New("entry is missing encrypted data envelope")
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables key rotation without rewriting old sessions.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.Journal
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts entry content using AES-GCM.
// ID, kind, timestamp, success and duration stay visible so journals can still be browsed.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrInvalidKey
	}
	for _, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key: %w", ErrInvalidKey)
		}
	}
	return func(next ports.Journal) ports.Journal {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

// DecodeKey parses a base64 (standard or URL) encoded AES-256 key.
func DecodeKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		key, err = base64.URLEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// sealed is the part of an entry that is encrypted.
type sealed struct {
	Input       string                `json:"input,omitempty"`
	Output      string                `json:"output,omitempty"`
	Suggestions domain.SuggestionList `json:"suggestions,omitempty"`
}

func (m *encryptionMiddleware) Append(ctx context.Context, sessionID string, entry domain.Entry) error {
	plainText, err := json.Marshal(sealed{Input: entry.Input, Output: entry.Output, Suggestions: entry.Suggestions})
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt entry: %w", err)
	}

	envelope := entry
	envelope.Input = ""
	envelope.Suggestions = nil
	envelope.Output = envelopePrefix + base64.StdEncoding.EncodeToString(ciphertext)
	return m.next.Append(ctx, sessionID, envelope)
}

func (m *encryptionMiddleware) List(ctx context.Context, sessionID string) ([]domain.Entry, error) {
	envelopes, err := m.next.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.Entry, len(envelopes))
	for i, envelope := range envelopes {
		encoded, ok := strings.CutPrefix(envelope.Output, envelopePrefix)
		if !ok {
			return nil, fmt.Errorf("entry %s: %w", envelope.ID, ErrNotEncrypted)
		}
		ciphertext, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
		}
		plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt entry %s: %w", envelope.ID, err)
		}
		var s sealed
		if err := json.Unmarshal(plainText, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal decrypted entry: %w", err)
		}

		entry := envelope
		entry.Input = s.Input
		entry.Output = s.Output
		entry.Suggestions = s.Suggestions
		entries[i] = entry
	}
	return entries, nil
}

func (m *encryptionMiddleware) Sessions(ctx context.Context) ([]string, error) {
	return m.next.Sessions(ctx)
}

func (m *encryptionMiddleware) Close() error {
	return m.next.Close()
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
