package domain

// Merge combines collections into one using last-accessed-wins per ID.
//
// For two records sharing an ID the one with the greater LastAccessed
// (absent counts as 0) wins; on a tie the record seen first is kept.
// IDs seen once are kept unconditionally. The result order is unspecified:
// callers that need a stable order re-sort with SortByLocation.
func Merge(collections ...[]Bookmark) []Bookmark {
	size := 0
	for _, c := range collections {
		size += len(c)
	}

	winners := make(map[string]Bookmark, size)
	order := make([]string, 0, size)
	for _, c := range collections {
		for _, b := range c {
			existing, ok := winners[b.ID]
			if !ok {
				order = append(order, b.ID)
				winners[b.ID] = b
				continue
			}
			if b.LastAccessed > existing.LastAccessed {
				winners[b.ID] = b
			}
		}
	}

	merged := make([]Bookmark, 0, len(order))
	for _, id := range order {
		merged = append(merged, winners[id])
	}
	return merged
}

// SameContent reports whether a and b hold the same bookmarks, ignoring
// order.
func SameContent(a, b []Bookmark) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[string]Bookmark, len(a))
	for _, x := range a {
		byID[x.ID] = x
	}
	for _, y := range b {
		if x, ok := byID[y.ID]; !ok || x != y {
			return false
		}
	}
	return true
}
