// Package crypto seals persisted bookmark collections.
//
// Envelope layout: nonce (12 bytes) || AES-256-GCM ciphertext+tag.
// Keys are derived from a user secret with HKDF-SHA256 and never used raw.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/MrSnakeDoc/linemark/internal/domain"
)

// KeySize is the AES-256 key length.
const KeySize = 32

const keyInfo = "linemark bookmark collection v1"

// DeriveKey stretches secret into a 32-byte AES key.
func DeriveKey(secret string) []byte {
	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails past 255*HashLen bytes
		panic(fmt.Sprintf("hkdf: %v", err))
	}
	return key
}

// Encrypt seals plaintext under key with a fresh random nonce.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens an envelope produced by Encrypt. Any failure (wrong key,
// truncated or tampered input) wraps domain.ErrDecryption.
func Decrypt(envelope, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	ns := aead.NonceSize()
	if len(envelope) < ns+aead.Overhead() {
		return nil, fmt.Errorf("envelope too short (%d bytes): %w", len(envelope), domain.ErrDecryption)
	}
	plain, err := aead.Open(nil, envelope[:ns], envelope[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("open envelope: %w", domain.ErrDecryption)
	}
	return plain, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length %d: %w", len(key), domain.ErrDecryption)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	return cipher.NewGCM(block)
}
