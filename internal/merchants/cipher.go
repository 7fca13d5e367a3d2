package merchants

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrTokenDecrypt is returned when a stored page token cannot be opened.
var ErrTokenDecrypt = errors.New("page token decrypt failed")

// TokenCipher seals page access tokens at rest with XChaCha20-Poly1305.
// The stored form is base64(nonce || ciphertext). A cipher built without a
// key passes tokens through unchanged.
type TokenCipher struct {
	aead cipher.AEAD
}

// NewTokenCipher parses a hex encoded 32 byte key. An empty key yields a
// passthrough cipher.
func NewTokenCipher(hexKey string) (*TokenCipher, error) {
	hexKey = strings.TrimSpace(hexKey)
	if hexKey == "" {
		return &TokenCipher{}, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode token key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("token key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &TokenCipher{aead: aead}, nil
}

// Enabled reports whether tokens are encrypted at rest.
func (c *TokenCipher) Enabled() bool {
	return c != nil && c.aead != nil
}

func (c *TokenCipher) Seal(token string) (string, error) {
	if !c.Enabled() {
		return token, nil
	}
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(token)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(token), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *TokenCipher) Open(stored string) (string, error) {
	if !c.Enabled() {
		return stored, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(stored))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenDecrypt, err)
	}
	if len(raw) < c.aead.NonceSize()+c.aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrTokenDecrypt)
	}
	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenDecrypt, err)
	}
	return string(plain), nil
}
