package projection

import (
	"math"
	"path/filepath"
	"sort"

	"github.com/MrSnakeDoc/linemark/internal/domain"
)

// DefaultNodeScale is used when the configured scale is not positive.
const DefaultNodeScale = 1.5

// GraphNode is one bookmark.
type GraphNode struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Path  string  `json:"path"`
	Size  float64 `json:"size"`
	Group string  `json:"group"` // directory of the file
}

// GraphLink relates two bookmarked files. Weight is the number of
// bookmarks in either file; Value is log(Weight+1).
type GraphLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight int     `json:"weight"`
	Value  float64 `json:"value"`
}

type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// NodeSize grows with the square root of the access count.
func NodeSize(accessCount int64, scale float64) float64 {
	if scale <= 0 {
		scale = DefaultNodeScale
	}
	return math.Sqrt(float64(accessCount)+1)*2*scale + 2
}

// BuildGraph computes the file-relatedness graph. Every pair of distinct
// bookmarked files gets one undirected link, so the cost is quadratic in
// the number of files.
func BuildGraph(items []domain.Bookmark, scale float64) Graph {
	g := Graph{
		Nodes: make([]GraphNode, 0, len(items)),
		Links: []GraphLink{},
	}

	perFile := make(map[string]int)
	for _, b := range items {
		p := b.AbsolutePath()
		perFile[p]++
		g.Nodes = append(g.Nodes, GraphNode{
			ID:    b.ID,
			Label: b.Label,
			Path:  p,
			Size:  NodeSize(b.AccessCount, scale),
			Group: filepath.Dir(p),
		})
	}

	files := make([]string, 0, len(perFile))
	for p := range perFile {
		files = append(files, p)
	}
	sort.Strings(files)

	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			w := perFile[files[i]] + perFile[files[j]]
			g.Links = append(g.Links, GraphLink{
				Source: files[i],
				Target: files[j],
				Weight: w,
				Value:  math.Log(float64(w) + 1),
			})
		}
	}
	return g
}
