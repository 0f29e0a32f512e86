// Package secret seals small values such as OAuth tokens at rest with
// AES-256-GCM. Sealed values are text envelopes "iv:ciphertext:tag", each
// part hex encoded.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	keySize = 32
	ivSize  = 12
	tagSize = 16
)

var (
	ErrInvalidKey      = errors.New("encryption key must be 32 bytes (64 hex characters)")
	ErrInvalidEnvelope = errors.New("invalid envelope")
)

// Box encrypts and decrypts envelopes with a single key.
type Box struct {
	key []byte
}

// NewBox returns a Box for a 32 byte key.
func NewBox(key []byte) (*Box, error) {
	if len(key) != keySize {
		return nil, ErrInvalidKey
	}
	k := make([]byte, keySize)
	copy(k, key)
	return &Box{key: k}, nil
}

// NewBoxFromHex returns a Box for a hex encoded 32 byte key.
func NewBoxFromHex(hexKey string) (*Box, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, ErrInvalidKey
	}
	return NewBox(key)
}

// Seal encrypts plaintext under a fresh random IV.
func (b *Box) Seal(plaintext []byte) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	aead, err := b.aead(ivSize)
	if err != nil {
		return "", err
	}

	sealed := aead.Seal(nil, iv, plaintext, nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ct) + ":" + hex.EncodeToString(tag), nil
}

// Open decrypts an envelope produced by Seal. Envelopes written with a
// non-standard IV length are accepted as well.
func (b *Box) Open(envelope string) ([]byte, error) {
	parts := strings.Split(strings.TrimSpace(envelope), ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: want 3 parts, got %d", ErrInvalidEnvelope, len(parts))
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) == 0 {
		return nil, fmt.Errorf("%w: bad iv", ErrInvalidEnvelope)
	}
	ct, err := hex.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext", ErrInvalidEnvelope)
	}
	tag, err := hex.DecodeString(parts[2])
	if err != nil || len(tag) != tagSize {
		return nil, fmt.Errorf("%w: bad tag", ErrInvalidEnvelope)
	}

	aead, err := b.aead(len(iv))
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

// SealString and OpenString are conveniences for text payloads.
func (b *Box) SealString(s string) (string, error) { return b.Seal([]byte(s)) }

func (b *Box) OpenString(envelope string) (string, error) {
	p, err := b.Open(envelope)
	return string(p), err
}

func (b *Box) aead(nonceSize int) (cipher.AEAD, error) {
	block, err := aes.NewCipher(b.key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	if nonceSize == ivSize {
		return cipher.NewGCM(block)
	}
	return cipher.NewGCMWithNonceSize(block, nonceSize)
}
