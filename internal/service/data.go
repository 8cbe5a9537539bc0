package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrSnakeDoc/linemark/internal/config"
	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/exchange"
	"github.com/MrSnakeDoc/linemark/internal/logger"
	"github.com/MrSnakeDoc/linemark/internal/persist"
)

// ─────────────────────────────
// Export / import
// ─────────────────────────────

// Export writes every bookmark, ordered by location, in format f.
func (s *Service) Export(w io.Writer, f exchange.Format) error {
	return exchange.Export(w, f, s.List(""))
}

// Import reads bookmarks in format f and appends those not already
// present at the same location. It returns the added bookmarks.
func (s *Service) Import(r io.Reader, f exchange.Format) ([]domain.Bookmark, error) {
	items, err := exchange.Import(r, f)
	if err != nil {
		return nil, err
	}
	ws := s.store.Workspaces()
	for i := range items {
		items[i].WorkspaceRoot, items[i].FilePath = ws.Resolve(s.absolute(items[i].FilePath))
	}
	added := s.store.Import(items)
	s.logger.Info("bookmarks imported",
		logger.String("format", string(f)),
		logger.Int("read", len(items)),
		logger.Int("added", len(added)))
	return added, nil
}

// ─────────────────────────────
// Storage scope
// ─────────────────────────────

// Migrate moves the collection to the key of scope to, merging it with
// what is already stored there, and switches the storage_scope option.
// It returns the number of bookmarks moved.
func (s *Service) Migrate(ctx context.Context, to domain.Scope) (int, error) {
	if err := s.saver.Flush(ctx); err != nil {
		return 0, fmt.Errorf("migrate: flush: %w", err)
	}

	from := s.Key()
	next := s.keyFor(to)
	moved, err := s.gateway.Migrate(ctx, from, next)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.key = next
	s.mu.Unlock()
	if err := s.Load(ctx); err != nil {
		return moved, err
	}

	if err := s.settings.Update(func(o *config.Options) { o.StorageScope = to }); err != nil {
		return moved, fmt.Errorf("migrate: persist scope: %w", err)
	}
	return moved, nil
}

// ─────────────────────────────
// Encryption
// ─────────────────────────────

// EncryptionSecret returns the masked secret.
func (s *Service) EncryptionSecret() string {
	return s.keys.Masked()
}

// RotateKey replaces the encryption secret and re-saves every stored
// collection under the new key. Collections that cannot be read under
// the old key are left untouched. It returns the masked new secret.
func (s *Service) RotateKey(ctx context.Context) (string, error) {
	if err := s.saver.Flush(ctx); err != nil {
		return "", fmt.Errorf("rotate key: flush: %w", err)
	}

	keys, err := s.blobs.Keys(ctx)
	if err != nil {
		return "", fmt.Errorf("rotate key: list keys: %w", err)
	}
	collections := make(map[string][]domain.Bookmark)
	var order []string
	for _, key := range keys {
		if key != persist.KeyGlobal && !strings.HasPrefix(key, persist.KeyPrefixWorkspace) {
			continue
		}
		items, err := s.gateway.Load(ctx, key)
		if err != nil {
			if errors.Is(err, domain.ErrDecryption) {
				s.logger.Warn("skipping unreadable collection", logger.Key(key))
				continue
			}
			return "", fmt.Errorf("rotate key: %w", err)
		}
		collections[key] = items
		order = append(order, key)
	}

	if _, err := s.keys.Rotate(); err != nil {
		return "", fmt.Errorf("rotate key: %w", err)
	}
	for _, key := range order {
		if _, err := s.gateway.Save(ctx, key, collections[key]); err != nil {
			return "", fmt.Errorf("rotate key: re-save %s: %w", key, err)
		}
	}

	s.logger.Info("encryption secret rotated", logger.Int("collections", len(order)))
	return s.keys.Masked(), nil
}

// ─────────────────────────────
// Options
// ─────────────────────────────

// Options returns the current options with the secret masked.
func (s *Service) Options() config.Options {
	opts := s.settings.Options()
	opts.EncryptionSecret = s.keys.Masked()
	return opts
}

// ReloadOptions rereads the options file, so edits made outside the
// process take effect.
func (s *Service) ReloadOptions() (config.Options, error) {
	if err := s.settings.Reload(); err != nil {
		return config.Options{}, fmt.Errorf("reload options: %w", err)
	}
	return s.Options(), nil
}

// UpdateOptions applies fn to the options. The secret cannot be set this
// way; use RotateKey.
func (s *Service) UpdateOptions(fn func(*config.Options)) (config.Options, error) {
	err := s.settings.Update(func(o *config.Options) {
		secret := o.EncryptionSecret
		fn(o)
		o.EncryptionSecret = secret
	})
	if err != nil {
		return config.Options{}, err
	}
	return s.Options(), nil
}
