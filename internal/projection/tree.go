package projection

import (
	"strconv"

	"github.com/MrSnakeDoc/linemark/internal/domain"
)

// NodeKind tags a tree Node.
type NodeKind string

const (
	NodeGroup    NodeKind = "group"
	NodeBookmark NodeKind = "bookmark"
)

// Node is one entry of the bookmark tree. Group nodes carry Children;
// bookmark nodes carry Bookmark.
type Node struct {
	Kind        NodeKind         `json:"kind"`
	ID          string           `json:"id"`
	Label       string           `json:"label"`
	Description string           `json:"description,omitempty"`
	Bookmark    *domain.Bookmark `json:"bookmark,omitempty"`
	Children    []Node           `json:"children,omitempty"`
}

// Tree renders groups as a two-level tree.
func Tree(groups []Group) []Node {
	nodes := make([]Node, 0, len(groups))
	for _, g := range groups {
		children := make([]Node, 0, len(g.Items))
		for i := range g.Items {
			b := g.Items[i]
			children = append(children, Node{
				Kind:        NodeBookmark,
				ID:          b.ID,
				Label:       b.Label,
				Description: b.BaseName() + ":" + strconv.Itoa(b.Line+1),
				Bookmark:    &b,
			})
		}
		desc := g.Root
		nodes = append(nodes, Node{
			Kind:        NodeGroup,
			ID:          g.ID,
			Label:       g.Name + " (" + strconv.Itoa(len(g.Items)) + ")",
			Description: desc,
			Children:    children,
		})
	}
	return nodes
}
