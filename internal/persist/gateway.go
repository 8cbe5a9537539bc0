// Package persist moves bookmark collections between memory and a blob
// store.
//
// Per key, at most one load or save touches the blob store at a time.
// Saves are queued before the key lock is taken; whoever holds the lock
// drains the queue, merges everything drained and writes the result, so
// two overlapping saves never lose each other's entries.
package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/linemark/internal/blob"
	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/logger"
)

// Codec converts between collections and stored bytes.
type Codec interface {
	Encode(items []domain.Bookmark) ([]byte, error)
	Decode(data []byte) ([]domain.Bookmark, error)
}

type saveRequest struct {
	items []domain.Bookmark
	done  chan saveResult
}

type saveResult struct {
	items []domain.Bookmark
	err   error
}

type keyState struct {
	mu      sync.Mutex // held for the whole load or save
	pending []*saveRequest
}

// Gateway is safe for concurrent use.
type Gateway struct {
	blobs  blob.Store
	codec  Codec
	logger logger.Logger

	mu   sync.Mutex // guards keys and every keyState.pending
	keys map[string]*keyState

	// released, when set, observes the queue length at the moment a
	// save gives up the key lock. Tests only.
	released func(key string, queued int)
}

func NewGateway(blobs blob.Store, codec Codec, log logger.Logger) *Gateway {
	return &Gateway{
		blobs:  blobs,
		codec:  codec,
		logger: log,
		keys:   make(map[string]*keyState),
	}
}

func (g *Gateway) state(key string) *keyState {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.keys[key]
	if !ok {
		st = &keyState{}
		g.keys[key] = st
	}
	return st
}

// Load reads the collection stored under key, merged with any save that
// is queued but not yet written. A blob that cannot be decrypted yields
// an empty collection and an error wrapping domain.ErrDecryption.
func (g *Gateway) Load(ctx context.Context, key string) ([]domain.Bookmark, error) {
	st := g.state(key)
	st.mu.Lock()
	defer st.mu.Unlock()

	stored, err := g.read(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrDecryption) {
		return nil, err
	}

	queued := g.peek(st)
	if len(queued) == 0 {
		return stored, err
	}
	return domain.Merge(append([][]domain.Bookmark{stored}, queued...)...), err
}

// Save writes items under key and returns the committed collection.
// Saves of the same key that overlap are merged before writing.
func (g *Gateway) Save(ctx context.Context, key string, items []domain.Bookmark) ([]domain.Bookmark, error) {
	st := g.state(key)
	req := &saveRequest{items: domain.Clone(items), done: make(chan saveResult, 1)}

	g.mu.Lock()
	st.pending = append(st.pending, req)
	g.mu.Unlock()

	st.mu.Lock()
	// another holder may have committed us while we waited
	select {
	case res := <-req.done:
		st.mu.Unlock()
		return res.items, res.err
	default:
	}
	g.drainAndUnlock(ctx, key, st)

	res := <-req.done
	return res.items, res.err
}

// drainAndUnlock writes queued saves until the queue is empty, then
// releases st.mu. Caller holds st.mu. Saves that arrive while a write is
// in progress are merged with what that write committed. The final
// empty check and the release happen under g.mu, so no save can queue
// behind a holder that is about to leave.
func (g *Gateway) drainAndUnlock(ctx context.Context, key string, st *keyState) {
	var carried []domain.Bookmark
	for {
		g.mu.Lock()
		batch := st.pending
		st.pending = nil
		if len(batch) == 0 {
			g.unlockKey(key, st)
			g.mu.Unlock()
			return
		}
		g.mu.Unlock()

		committed, err := g.commit(ctx, key, carried, batch)
		if err != nil {
			// keep the data for the next save or load
			g.mu.Lock()
			st.pending = append(requeue(batch), st.pending...)
			g.unlockKey(key, st)
			g.mu.Unlock()
			for _, r := range batch {
				r.done <- saveResult{err: err}
			}
			return
		}

		g.logger.Debug("bookmarks saved",
			logger.Key(key),
			logger.Int("count", len(committed)),
			logger.Int("merged_saves", len(batch)))
		for _, r := range batch {
			r.done <- saveResult{items: domain.Clone(committed)}
		}
		carried = committed
	}
}

// unlockKey releases st.mu. Caller holds g.mu.
func (g *Gateway) unlockKey(key string, st *keyState) {
	if g.released != nil {
		g.released(key, len(st.pending))
	}
	st.mu.Unlock()
}

func (g *Gateway) commit(ctx context.Context, key string, carried []domain.Bookmark, batch []*saveRequest) ([]domain.Bookmark, error) {
	collections := make([][]domain.Bookmark, 0, len(batch)+1)
	if carried != nil {
		collections = append(collections, carried)
	}
	for _, r := range batch {
		collections = append(collections, r.items)
	}
	merged := domain.Merge(collections...)

	data, err := g.codec.Encode(merged)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	if err := g.blobs.Set(ctx, key, data); err != nil {
		return nil, fmt.Errorf("write %s: %v: %w", key, err, domain.ErrIO)
	}
	return merged, nil
}

func (g *Gateway) read(ctx context.Context, key string) ([]domain.Bookmark, error) {
	data, ok, err := g.blobs.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return []domain.Bookmark{}, nil
	}
	items, err := g.codec.Decode(data)
	if err != nil {
		if errors.Is(err, domain.ErrDecryption) {
			return []domain.Bookmark{}, fmt.Errorf("decode %s: %w", key, err)
		}
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return items, nil
}

// peek returns copies of the queued collections without dequeuing them.
func (g *Gateway) peek(st *keyState) [][]domain.Bookmark {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([][]domain.Bookmark, 0, len(st.pending))
	for _, r := range st.pending {
		out = append(out, domain.Clone(r.items))
	}
	return out
}

// Pending reports how many saves of key are queued but not written.
func (g *Gateway) Pending(key string) int {
	st := g.state(key)
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(st.pending)
}

// requeue copies the data of failed requests into fresh, unobserved
// requests so that their original callers are completed exactly once.
func requeue(batch []*saveRequest) []*saveRequest {
	out := make([]*saveRequest, 0, len(batch))
	for _, r := range batch {
		out = append(out, &saveRequest{items: r.items, done: make(chan saveResult, 1)})
	}
	return out
}
