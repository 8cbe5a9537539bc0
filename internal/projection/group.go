package projection

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/linemark/internal/domain"
)

// UngroupedID identifies the bucket of bookmarks outside every workspace.
const UngroupedID = "ungrouped"

// GroupOrder is how groups are sorted, e.g. "name-asc".
type GroupOrder struct {
	By   string // "name" | "count" | "path"
	Desc bool
}

// DefaultGroupOrder sorts groups by name, ascending.
var DefaultGroupOrder = GroupOrder{By: "name"}

// ParseGroupOrder reads "<name|count|path>-<asc|desc>". Anything else
// yields DefaultGroupOrder.
func ParseGroupOrder(s string) GroupOrder {
	by, dir, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "-")
	if !ok {
		return DefaultGroupOrder
	}
	switch by {
	case "name", "count", "path":
	default:
		return DefaultGroupOrder
	}
	switch dir {
	case "asc":
		return GroupOrder{By: by}
	case "desc":
		return GroupOrder{By: by, Desc: true}
	default:
		return DefaultGroupOrder
	}
}

func (o GroupOrder) String() string {
	if o.Desc {
		return o.By + "-desc"
	}
	return o.By + "-asc"
}

// Group is the bookmarks of one workspace root, or the ungrouped bucket.
type Group struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Root  string            `json:"root,omitempty"`
	Items []domain.Bookmark `json:"items"`
}

// Ungrouped reports whether g is the bucket of unowned bookmarks.
func (g Group) Ungrouped() bool { return g.ID == UngroupedID }

// GroupByWorkspace buckets items by owning workspace root. Only non-empty
// groups are returned; the ungrouped bucket, when present, comes last.
// Items inside a group are sorted by location.
func GroupByWorkspace(items []domain.Bookmark, ws domain.Workspaces, order GroupOrder) []Group {
	byRoot := make(map[string][]domain.Bookmark, len(ws))
	var ungrouped []domain.Bookmark
	for _, b := range items {
		root := ws.Owner(b)
		if root == "" {
			ungrouped = append(ungrouped, b)
			continue
		}
		byRoot[root] = append(byRoot[root], b)
	}

	groups := make([]Group, 0, len(byRoot)+1)
	for _, root := range ws {
		members, ok := byRoot[root]
		if !ok {
			continue
		}
		delete(byRoot, root) // duplicate roots in ws
		domain.SortByLocation(members)
		groups = append(groups, Group{
			ID:    root,
			Name:  filepath.Base(root),
			Root:  root,
			Items: members,
		})
	}
	sortGroups(groups, order)

	if len(ungrouped) > 0 {
		domain.SortByLocation(ungrouped)
		groups = append(groups, Group{ID: UngroupedID, Name: "Other bookmarks", Items: ungrouped})
	}
	return groups
}

func sortGroups(groups []Group, order GroupOrder) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		var less, equal bool
		switch order.By {
		case "count":
			less, equal = len(a.Items) < len(b.Items), len(a.Items) == len(b.Items)
		case "path":
			pa, pb := strings.ToLower(a.Root), strings.ToLower(b.Root)
			less, equal = pa < pb, pa == pb
		default:
			na, nb := strings.ToLower(a.Name), strings.ToLower(b.Name)
			less, equal = na < nb, na == nb
		}
		if equal {
			return false
		}
		if order.Desc {
			return !less
		}
		return less
	})
}
