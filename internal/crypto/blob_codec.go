package crypto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/linemark/internal/config"
	"github.com/MrSnakeDoc/linemark/internal/domain"
)

// BlobCodec turns a bookmark collection into the bytes stored by a blob
// backend, encrypting when the encryption_enabled option is set.
type BlobCodec struct {
	settings *config.Settings
	keys     *KeyProvider
}

func NewBlobCodec(settings *config.Settings, keys *KeyProvider) *BlobCodec {
	return &BlobCodec{settings: settings, keys: keys}
}

// Encode serializes items. The current toggle decides the format.
func (c *BlobCodec) Encode(items []domain.Bookmark) ([]byte, error) {
	if items == nil {
		items = []domain.Bookmark{}
	}
	plain, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bookmarks: %w", err)
	}
	if !c.settings.Options().EncryptionEnabled {
		return plain, nil
	}
	key, err := c.keys.Key()
	if err != nil {
		return nil, err
	}
	return Encrypt(plain, key)
}

// Decode parses data written by Encode. A plain JSON array is accepted
// whatever the toggle, so enabling encryption keeps old blobs readable.
func (c *BlobCodec) Decode(data []byte) ([]domain.Bookmark, error) {
	if len(data) == 0 {
		return []domain.Bookmark{}, nil
	}
	if looksLikeJSON(data) {
		return unmarshal(data)
	}
	if !c.settings.Options().EncryptionEnabled {
		// sealed blob with encryption switched off: still try the known key
		if c.settings.Options().EncryptionSecret == "" {
			return nil, fmt.Errorf("encrypted blob without secret: %w", domain.ErrDecryption)
		}
	}
	key, err := c.keys.Key()
	if err != nil {
		return nil, err
	}
	plain, err := Decrypt(data, key)
	if err != nil {
		return nil, err
	}
	return unmarshal(plain)
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '[' && json.Valid(trimmed)
}

// unmarshal reports a payload of the wrong shape as unreadable, like a
// blob sealed under another key.
func unmarshal(data []byte) ([]domain.Bookmark, error) {
	var items []domain.Bookmark
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmarks: %v: %w", err, domain.ErrDecryption)
	}
	if items == nil {
		items = []domain.Bookmark{}
	}
	return items, nil
}
