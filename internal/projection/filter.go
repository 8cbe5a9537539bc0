// Package projection derives read-only views from store snapshots:
// filtered lists, workspace groups, tree nodes, navigation order and the
// file-relatedness graph. Nothing here mutates or persists.
package projection

import (
	"strings"

	"github.com/MrSnakeDoc/linemark/internal/domain"
)

// Filter keeps bookmarks whose label or file name contains text,
// case-insensitively. Empty text keeps everything.
func Filter(items []domain.Bookmark, text string) []domain.Bookmark {
	needle := strings.ToLower(strings.TrimSpace(text))
	out := make([]domain.Bookmark, 0, len(items))
	for _, b := range items {
		if needle == "" ||
			strings.Contains(strings.ToLower(b.Label), needle) ||
			strings.Contains(strings.ToLower(b.BaseName()), needle) {
			out = append(out, b)
		}
	}
	return out
}

// SortByLocation returns a copy ordered by file path then line.
func SortByLocation(items []domain.Bookmark) []domain.Bookmark {
	out := domain.Clone(items)
	domain.SortByLocation(out)
	return out
}
