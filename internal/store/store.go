// Package store holds the canonical in-memory bookmark collection.
//
// Every method is synchronous and performs no persistence I/O. Mutations
// bump Version and publish a notification on the bus; persistence is the
// caller's business.
package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/linemark/internal/document"
	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/events"
	"github.com/MrSnakeDoc/linemark/internal/fingerprint"
)

type Store struct {
	mu      sync.RWMutex
	items   []domain.Bookmark
	byID    map[string]int
	version uint64

	reader     document.Reader
	workspaces domain.Workspaces
	bus        *events.Bus
	now        func() time.Time
	newID      func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now, used for LastAccessed.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the UUIDv4 id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithWorkspaces sets the roots used to split added paths into
// (root, relative path).
func WithWorkspaces(ws domain.Workspaces) Option {
	return func(s *Store) { s.workspaces = ws }
}

// New creates an empty store. reader and bus may be nil.
func New(reader document.Reader, bus *events.Bus, opts ...Option) *Store {
	s := &Store{
		byID:   make(map[string]int),
		reader: reader,
		bus:    bus,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ─────────────────────────────
// Reads
// ─────────────────────────────

// Get returns a copy of the bookmark with the given id.
func (s *Store) Get(id string) (domain.Bookmark, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return domain.Bookmark{}, false
	}
	return s.items[i], true
}

// Len returns the number of bookmarks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Version is incremented by every mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a deep copy of the collection in insertion order.
func (s *Store) Snapshot() []domain.Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Clone(s.items)
}

// Workspaces returns the configured roots.
func (s *Store) Workspaces() domain.Workspaces {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workspaces
}

// SetWorkspaces replaces the configured roots.
func (s *Store) SetWorkspaces(ws domain.Workspaces) {
	s.mu.Lock()
	s.workspaces = ws
	s.mu.Unlock()
}

// ─────────────────────────────
// Mutations
// ─────────────────────────────

// AddOption customizes a bookmark created by Add.
type AddOption func(*domain.Bookmark)

// WithLabel overrides the generated label.
func WithLabel(label string) AddOption {
	return func(b *domain.Bookmark) {
		if label != "" {
			b.Label = label
		}
	}
}

// Add creates a bookmark at loc. The fingerprint is taken from the live
// line when the reader can resolve it, and left empty otherwise.
func (s *Store) Add(ctx context.Context, loc domain.Location, opts ...AddOption) domain.Bookmark {
	var fp string
	if s.reader != nil {
		if text, err := document.Line(ctx, s.reader, loc.Path, loc.Line); err == nil {
			fp = fingerprint.Of(text)
		}
	}

	line := loc.Line
	if line < 0 {
		line = 0
	}

	s.mu.Lock()
	root, rel := s.workspaces.Resolve(loc.Path)
	b := domain.Bookmark{
		ID:            s.newID(),
		FilePath:      rel,
		WorkspaceRoot: root,
		Line:          line,
		Label:         "Bookmark " + strconv.Itoa(len(s.items)+1),
		Fingerprint:   fp,
	}
	for _, opt := range opts {
		opt(&b)
	}
	s.byID[b.ID] = len(s.items)
	s.items = append(s.items, b)
	s.changedLocked()
	s.mu.Unlock()

	s.publish()
	return b
}

// Remove deletes the bookmark. It reports false, and changes nothing,
// when the id is unknown.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	i, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindexLocked()
	s.changedLocked()
	s.mu.Unlock()

	s.publish()
	return true
}

// Clear removes every bookmark.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.byID = make(map[string]int)
	s.changedLocked()
	s.mu.Unlock()

	s.publish()
}

// Rename changes the label.
func (s *Store) Rename(id, label string) bool {
	return s.update(id, func(b *domain.Bookmark) { b.Label = label })
}

// RecordAccess counts a navigation to the bookmark.
func (s *Store) RecordAccess(id string) bool {
	now := s.now().UnixMilli()
	return s.update(id, func(b *domain.Bookmark) {
		b.AccessCount++
		b.LastAccessed = now
	})
}

// UpdateLocation rewrites every bookmark located at (oldPath, oldRoot)
// and returns how many were moved.
func (s *Store) UpdateLocation(oldPath, oldRoot, newPath, newRoot string) int {
	s.mu.Lock()
	moved := 0
	for i := range s.items {
		b := &s.items[i]
		if b.FilePath == oldPath && b.WorkspaceRoot == oldRoot {
			b.FilePath = newPath
			b.WorkspaceRoot = newRoot
			moved++
		}
	}
	if moved > 0 {
		s.changedLocked()
	}
	s.mu.Unlock()

	if moved > 0 {
		s.publish()
	}
	return moved
}

// UpdateLocationByID moves a single bookmark to another file.
func (s *Store) UpdateLocationByID(id, newPath, newRoot string) bool {
	return s.update(id, func(b *domain.Bookmark) {
		b.FilePath = newPath
		b.WorkspaceRoot = newRoot
	})
}

// FixPosition re-anchors the bookmark to line with a fresh fingerprint and
// clears the stale and unreachable flags.
func (s *Store) FixPosition(id string, line int, fp string) bool {
	if line < 0 {
		line = 0
	}
	return s.update(id, func(b *domain.Bookmark) {
		b.Line = line
		b.Fingerprint = fp
		b.Stale = false
		b.Unreachable = false
	})
}

// MarkStale flags the bookmark and records the mismatching fingerprint.
func (s *Store) MarkStale(id, fp string) bool {
	return s.update(id, func(b *domain.Bookmark) {
		b.Stale = true
		b.Fingerprint = fp
	})
}

// MarkUnreachable flags a bookmark whose location could not be resolved.
// The fingerprint is left untouched.
func (s *Store) MarkUnreachable(id string) bool {
	return s.update(id, func(b *domain.Bookmark) {
		b.Stale = true
		b.Unreachable = true
	})
}

// MarkReachable clears the unreachable flag.
func (s *Store) MarkReachable(id string) bool {
	return s.update(id, func(b *domain.Bookmark) { b.Unreachable = false })
}

// Replace adopts a loaded collection wholesale.
func (s *Store) Replace(items []domain.Bookmark) {
	s.mu.Lock()
	s.items = domain.Clone(items)
	s.reindexLocked()
	s.changedLocked()
	s.mu.Unlock()

	s.publish()
}

// Adopt replaces the collection with items only if no mutation happened
// since version was read. It reports whether items were adopted.
func (s *Store) Adopt(items []domain.Bookmark, version uint64) bool {
	s.mu.Lock()
	if s.version != version {
		s.mu.Unlock()
		return false
	}
	s.items = domain.Clone(items)
	s.reindexLocked()
	s.changedLocked()
	s.mu.Unlock()

	s.publish()
	return true
}

// Reconcile merges incoming into the collection (most recent access wins
// per id) and returns the resulting snapshot.
func (s *Store) Reconcile(incoming []domain.Bookmark) []domain.Bookmark {
	s.mu.Lock()
	s.items = domain.Merge(s.items, incoming)
	s.reindexLocked()
	s.changedLocked()
	out := domain.Clone(s.items)
	s.mu.Unlock()

	s.publish()
	return out
}

// Import appends the entries whose location is not already bookmarked.
// Within the batch the first entry for a location wins. Entries without
// an id get one. It returns the added bookmarks.
func (s *Store) Import(items []domain.Bookmark) []domain.Bookmark {
	s.mu.Lock()
	seen := make(map[string]struct{}, len(s.items)+len(items))
	for _, b := range s.items {
		seen[b.LocationKey()] = struct{}{}
	}
	added := make([]domain.Bookmark, 0, len(items))
	for _, b := range items {
		key := b.LocationKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if b.ID == "" {
			b.ID = s.newID()
		}
		if _, taken := s.byID[b.ID]; taken {
			b.ID = s.newID()
		}
		if b.Line < 0 {
			b.Line = 0
		}
		s.byID[b.ID] = len(s.items)
		s.items = append(s.items, b)
		added = append(added, b)
	}
	if len(added) > 0 {
		s.changedLocked()
	}
	s.mu.Unlock()

	if len(added) > 0 {
		s.publish()
	}
	return added
}

// ─────────────────────────────
// Internals
// ─────────────────────────────

func (s *Store) update(id string, fn func(*domain.Bookmark)) bool {
	s.mu.Lock()
	i, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	fn(&s.items[i])
	s.changedLocked()
	s.mu.Unlock()

	s.publish()
	return true
}

func (s *Store) reindexLocked() {
	s.byID = make(map[string]int, len(s.items))
	for i, b := range s.items {
		s.byID[b.ID] = i
	}
}

func (s *Store) changedLocked() {
	s.version++
}

func (s *Store) publish() {
	if s.bus != nil {
		s.bus.Publish()
	}
}
