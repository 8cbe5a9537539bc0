package projection

import (
	"sync"

	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/events"
)

// GraphCache keeps the last computed graph and rebuilds it only after a
// change notification arrived on the bus, or the scale changed.
type GraphCache struct {
	mu       sync.Mutex
	snapshot func() []domain.Bookmark
	changed  <-chan struct{}
	cancel   func()

	graph Graph
	scale float64
	valid bool
	built int // number of rebuilds, for tests and metrics
}

// NewGraphCache subscribes to bus. snapshot supplies the collection.
func NewGraphCache(bus *events.Bus, snapshot func() []domain.Bookmark) *GraphCache {
	ch, cancel := bus.Subscribe()
	return &GraphCache{snapshot: snapshot, changed: ch, cancel: cancel}
}

// Graph returns the cached graph, recomputing it when dirty.
func (c *GraphCache) Graph(scale float64) Graph {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.changed:
		c.valid = false
	default:
	}
	if !c.valid || c.scale != scale {
		c.graph = BuildGraph(c.snapshot(), scale)
		c.scale = scale
		c.valid = true
		c.built++
	}
	return c.graph
}

// Builds returns how many times the graph was computed.
func (c *GraphCache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.built
}

// Close detaches the cache from the bus.
func (c *GraphCache) Close() {
	c.cancel()
}
