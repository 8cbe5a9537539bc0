package persist

import (
	"path/filepath"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/linemark/internal/domain"
)

const (
	// KeyGlobal holds the collection shared by every workspace.
	KeyGlobal = "linemark:bookmarks"
	// KeyPrefixWorkspace prefixes per-workspace collections.
	KeyPrefixWorkspace = "linemark:bookmarks:ws:"
)

// WorkspaceID is a stable name-based UUID of a workspace root.
func WorkspaceID(root string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(filepath.Clean(root)))).String()
}

// Key returns the storage key for scope. root is ignored for the global
// scope; an empty root under the per-workspace scope falls back to the
// global key.
func Key(scope domain.Scope, root string) string {
	if scope != domain.ScopeWorkspace || root == "" {
		return KeyGlobal
	}
	return KeyPrefixWorkspace + WorkspaceID(root)
}
