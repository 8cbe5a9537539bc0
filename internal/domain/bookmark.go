package domain

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Bookmark represents a marked line in a source file.
//
// It is NOT tied to a storage backend or an editor.
// JSON field names match the persisted blob format so that collections
// written by earlier versions keep loading.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier, assigned at creation.
	ID string `json:"id"`

	// ─────────────────────────────
	// Location (mutable through rename tracking and fix-position)
	// ─────────────────────────────

	// FilePath is relative to WorkspaceRoot when one owns the file,
	// absolute otherwise.
	FilePath string `json:"filePath"`

	// WorkspaceRoot is the owning workspace root. Empty means global/unscoped.
	WorkspaceRoot string `json:"workspaceFolder,omitempty"`

	// Line is the zero-based line index.
	Line int `json:"lineNumber"`

	// ─────────────────────────────
	// Presentation
	// ─────────────────────────────

	// Label is the human-readable display name.
	Label string `json:"label"`

	// ─────────────────────────────
	// Drift detection
	// ─────────────────────────────

	// Fingerprint is the digest of the line text at the last observation.
	Fingerprint string `json:"codeHash,omitempty"`

	// Stale is true when the live line no longer matches Fingerprint.
	Stale bool `json:"isExpired,omitempty"`

	// Unreachable is true when the file could not be opened during the
	// last check. Navigation skips such bookmarks.
	Unreachable bool `json:"unreachable,omitempty"`

	// ─────────────────────────────
	// Usage
	// ─────────────────────────────

	// AccessCount is incremented on each navigation.
	AccessCount int64 `json:"accessCount"`

	// LastAccessed is the unix time in milliseconds of the last navigation.
	// Zero means never accessed. Used as the merge tie-breaker.
	LastAccessed int64 `json:"lastAccessed,omitempty"`
}

// Location is an absolute file path and a zero-based line.
type Location struct {
	Path string
	Line int
}

// LocationKey is the (path, line) identity used to de-duplicate imports.
// The path is resolved against WorkspaceRoot so that relative and
// absolute spellings of the same file collide.
func (b Bookmark) LocationKey() string {
	return b.AbsolutePath() + ":" + strconv.Itoa(b.Line)
}

// BaseName returns the file name of the bookmark target.
func (b Bookmark) BaseName() string {
	return filepath.Base(b.FilePath)
}

// AbsolutePath resolves FilePath against WorkspaceRoot.
func (b Bookmark) AbsolutePath() string {
	if b.WorkspaceRoot == "" {
		return b.FilePath
	}
	return filepath.Join(b.WorkspaceRoot, b.FilePath)
}

// LessByLocation orders by FilePath then Line.
func LessByLocation(a, b Bookmark) bool {
	if a.FilePath != b.FilePath {
		return a.FilePath < b.FilePath
	}
	return a.Line < b.Line
}

// SortByLocation sorts bookmarks in place by FilePath then Line.
func SortByLocation(items []Bookmark) {
	sort.SliceStable(items, func(i, j int) bool {
		return LessByLocation(items[i], items[j])
	})
}

// Clone returns a copy of the slice. Bookmark has no reference fields,
// so copying the values is a deep copy.
func Clone(items []Bookmark) []Bookmark {
	if items == nil {
		return []Bookmark{}
	}
	out := make([]Bookmark, len(items))
	copy(out, items)
	return out
}

// Workspaces is the set of known workspace roots.
type Workspaces []string

// NewWorkspaces cleans the given roots and drops empty entries.
func NewWorkspaces(roots ...string) Workspaces {
	ws := make(Workspaces, 0, len(roots))
	for _, r := range roots {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		ws = append(ws, filepath.Clean(r))
	}
	return ws
}

// Resolve returns the owning root and the path relative to it.
// When no root owns path, root is empty and rel is the cleaned path.
// The longest matching root wins for nested workspaces.
func (ws Workspaces) Resolve(path string) (root, rel string) {
	path = filepath.Clean(path)
	for _, r := range ws {
		if !within(r, path) {
			continue
		}
		if len(r) > len(root) {
			root = r
		}
	}
	if root == "" {
		return "", path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", path
	}
	return root, rel
}

// Owner returns the known root owning the bookmark, or "" when none does.
func (ws Workspaces) Owner(b Bookmark) string {
	if b.WorkspaceRoot != "" {
		clean := filepath.Clean(b.WorkspaceRoot)
		for _, r := range ws {
			if r == clean {
				return r
			}
		}
		return ""
	}
	root, _ := ws.Resolve(b.FilePath)
	return root
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
