package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/linemark/internal/config"
)

// SecretLength is the number of characters of a generated secret.
const SecretLength = 32

// GenerateSecret returns 32 random bytes, base64 encoded and cut to
// SecretLength characters.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf)[:SecretLength], nil
}

// KeyProvider hands out the encryption key backed by the options file.
// A missing secret is generated and persisted on first use.
type KeyProvider struct {
	mu       sync.Mutex
	settings *config.Settings
	secret   string
	key      []byte
}

func NewKeyProvider(settings *config.Settings) *KeyProvider {
	return &KeyProvider{settings: settings}
}

// Key returns the derived key for the current secret.
func (p *KeyProvider) Key() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	secret := p.settings.Options().EncryptionSecret
	if secret == "" {
		generated, err := GenerateSecret()
		if err != nil {
			return nil, err
		}
		if err := p.settings.Update(func(o *config.Options) { o.EncryptionSecret = generated }); err != nil {
			return nil, fmt.Errorf("failed to persist encryption secret: %w", err)
		}
		secret = generated
	}
	if secret != p.secret || p.key == nil {
		p.secret = secret
		p.key = DeriveKey(secret)
	}
	return p.key, nil
}

// Rotate replaces the secret with a freshly generated one and returns it.
// Collections sealed under the old key must be re-saved by the caller.
func (p *KeyProvider) Rotate() (string, error) {
	generated, err := GenerateSecret()
	if err != nil {
		return "", err
	}
	if err := p.settings.Update(func(o *config.Options) { o.EncryptionSecret = generated }); err != nil {
		return "", fmt.Errorf("failed to persist encryption secret: %w", err)
	}
	p.mu.Lock()
	p.secret = generated
	p.key = DeriveKey(generated)
	p.mu.Unlock()
	return generated, nil
}

// Masked returns the secret with all but the first and last four
// characters hidden, or "" when none is set yet.
func (p *KeyProvider) Masked() string {
	secret := p.settings.Options().EncryptionSecret
	if len(secret) <= 8 {
		if secret == "" {
			return ""
		}
		return "********"
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}
