package projection

import (
	"path/filepath"
	"sort"

	"github.com/MrSnakeDoc/linemark/internal/domain"
)

// Next returns the first reachable bookmark strictly after cursor in
// (absolute path, line) order, wrapping around to the first one.
// ok is false when there is no reachable bookmark.
func Next(items []domain.Bookmark, cursor domain.Location) (domain.Bookmark, bool) {
	ordered := navigable(items)
	if len(ordered) == 0 {
		return domain.Bookmark{}, false
	}
	for _, e := range ordered {
		if after(e, cursor) {
			return e.b, true
		}
	}
	return ordered[0].b, true
}

// Previous returns the last reachable bookmark strictly before cursor,
// wrapping around to the last one.
func Previous(items []domain.Bookmark, cursor domain.Location) (domain.Bookmark, bool) {
	ordered := navigable(items)
	if len(ordered) == 0 {
		return domain.Bookmark{}, false
	}
	for i := len(ordered) - 1; i >= 0; i-- {
		if before(ordered[i], cursor) {
			return ordered[i].b, true
		}
	}
	return ordered[len(ordered)-1].b, true
}

type entry struct {
	path string
	b    domain.Bookmark
}

func navigable(items []domain.Bookmark) []entry {
	out := make([]entry, 0, len(items))
	for _, b := range items {
		if b.Unreachable {
			continue
		}
		out = append(out, entry{path: filepath.Clean(b.AbsolutePath()), b: b})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].path != out[j].path {
			return out[i].path < out[j].path
		}
		return out[i].b.Line < out[j].b.Line
	})
	return out
}

func after(e entry, c domain.Location) bool {
	p := filepath.Clean(c.Path)
	return e.path > p || (e.path == p && e.b.Line > c.Line)
}

func before(e entry, c domain.Location) bool {
	p := filepath.Clean(c.Path)
	return e.path < p || (e.path == p && e.b.Line < c.Line)
}
