package persist

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/logger"
)

// Migrate moves the collection stored under from into to, merging with
// what to already holds, then deletes from. Saves still queued for either
// key are folded into the write and completed by it. It returns the
// number of bookmarks moved. Nothing is written when either blob cannot
// be decoded.
func (g *Gateway) Migrate(ctx context.Context, from, to string) (int, error) {
	if from == to {
		return 0, nil
	}

	src, dst := g.state(from), g.state(to)
	// fixed lock order so two opposite migrations cannot deadlock
	first, second := src, dst
	if to < from {
		first, second = dst, src
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	moving, err := g.read(ctx, from)
	if err != nil {
		return 0, fmt.Errorf("migrate: %w", err)
	}
	if queued := g.peek(src); len(queued) > 0 {
		moving = domain.Merge(append([][]domain.Bookmark{moving}, queued...)...)
	}

	// an unreadable destination is kept as is, never replaced
	existing, err := g.read(ctx, to)
	if err != nil {
		return 0, fmt.Errorf("migrate: %w", err)
	}
	if queued := g.peek(dst); len(queued) > 0 {
		existing = domain.Merge(append([][]domain.Bookmark{existing}, queued...)...)
	}

	merged := domain.Merge(existing, moving)
	data, err := g.codec.Encode(merged)
	if err != nil {
		return 0, fmt.Errorf("migrate: encode %s: %w", to, err)
	}
	if err := g.blobs.Set(ctx, to, data); err != nil {
		return 0, fmt.Errorf("migrate: write %s: %v: %w", to, err, domain.ErrIO)
	}
	if err := g.blobs.Delete(ctx, from); err != nil {
		return 0, fmt.Errorf("migrate: delete %s: %v: %w", from, err, domain.ErrIO)
	}
	g.complete(src, merged)
	g.complete(dst, merged)

	g.logger.Info("bookmarks migrated",
		logger.String("from", from),
		logger.String("to", to),
		logger.Int("count", len(moving)))
	return len(moving), nil
}

// complete resolves every queued save of st with items. Caller holds st.mu.
func (g *Gateway) complete(st *keyState, items []domain.Bookmark) {
	g.mu.Lock()
	batch := st.pending
	st.pending = nil
	g.mu.Unlock()

	for _, r := range batch {
		r.done <- saveResult{items: domain.Clone(items)}
	}
}
