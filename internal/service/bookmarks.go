package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/linemark/internal/document"
	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/fingerprint"
	"github.com/MrSnakeDoc/linemark/internal/logger"
	"github.com/MrSnakeDoc/linemark/internal/projection"
	"github.com/MrSnakeDoc/linemark/internal/store"
)

// Direction selects the neighbour returned by Navigate.
type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
)

// ParseDirection accepts "next"/"previous" and their short forms.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "next", "n":
		return DirectionNext, nil
	case "previous", "prev", "p":
		return DirectionPrevious, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// ─────────────────────────────
// Commands
// ─────────────────────────────

// Add bookmarks the zero-based line of the file at path.
func (s *Service) Add(ctx context.Context, path string, line int, label string) domain.Bookmark {
	b := s.store.Add(ctx, domain.Location{Path: s.absolute(path), Line: line}, store.WithLabel(label))
	s.logger.Debug("bookmark added",
		logger.BookmarkID(b.ID),
		logger.Path(b.FilePath),
		logger.Int("line", b.Line))
	return b
}

func (s *Service) Remove(id string) error {
	if !s.store.Remove(id) {
		return fmt.Errorf("remove %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Service) Rename(id, label string) (domain.Bookmark, error) {
	if !s.store.Rename(id, label) {
		return domain.Bookmark{}, fmt.Errorf("rename %s: %w", id, domain.ErrNotFound)
	}
	b, _ := s.store.Get(id)
	return b, nil
}

func (s *Service) RecordAccess(id string) (domain.Bookmark, error) {
	if !s.store.RecordAccess(id) {
		return domain.Bookmark{}, fmt.Errorf("record access %s: %w", id, domain.ErrNotFound)
	}
	b, _ := s.store.Get(id)
	return b, nil
}

// Move points a single bookmark at another file, keeping its line.
func (s *Service) Move(ctx context.Context, id, newPath string) (domain.Bookmark, error) {
	root, rel := s.store.Workspaces().Resolve(s.absolute(newPath))
	if !s.store.UpdateLocationByID(id, rel, root) {
		return domain.Bookmark{}, fmt.Errorf("move %s: %w", id, domain.ErrNotFound)
	}
	b, _ := s.store.Get(id)
	s.detector.CheckFile(ctx, b.AbsolutePath())
	b, _ = s.store.Get(id)
	return b, nil
}

// FixPosition re-anchors a bookmark on line, taking a fresh fingerprint
// of the live text. An unreadable line clears the fingerprint.
func (s *Service) FixPosition(ctx context.Context, id string, line int) (domain.Bookmark, error) {
	b, ok := s.store.Get(id)
	if !ok {
		return domain.Bookmark{}, fmt.Errorf("fix position %s: %w", id, domain.ErrNotFound)
	}
	if line < 0 {
		line = b.Line
	}
	var fp string
	if text, err := document.Line(ctx, s.reader, b.AbsolutePath(), line); err == nil {
		fp = fingerprint.Of(text)
	}
	s.store.FixPosition(id, line, fp)
	b, _ = s.store.Get(id)
	return b, nil
}

func (s *Service) Clear() {
	s.store.Clear()
}

// ─────────────────────────────
// Queries
// ─────────────────────────────

func (s *Service) Get(id string) (domain.Bookmark, error) {
	b, ok := s.store.Get(id)
	if !ok {
		return domain.Bookmark{}, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
	}
	return b, nil
}

// Len returns the number of bookmarks.
func (s *Service) Len() int {
	return s.store.Len()
}

// List returns the bookmarks matching q, ordered by location.
func (s *Service) List(q string) []domain.Bookmark {
	return projection.SortByLocation(projection.Filter(s.store.Snapshot(), q))
}

// Groups buckets the matching bookmarks per workspace using the
// configured group order.
func (s *Service) Groups(q string) []projection.Group {
	order := projection.ParseGroupOrder(s.settings.Options().GroupSortOrder)
	return projection.GroupByWorkspace(s.List(q), s.store.Workspaces(), order)
}

func (s *Service) Tree(q string) []projection.Node {
	return projection.Tree(s.Groups(q))
}

// Graph returns the cached file graph at the configured node scale.
func (s *Service) Graph() projection.Graph {
	return s.graph.Graph(s.settings.Options().NodeScale)
}

// Navigate returns the bookmark after (or before) cursor and records the
// access on it. ok is false when nothing is navigable.
func (s *Service) Navigate(dir Direction, cursor domain.Location) (domain.Bookmark, bool) {
	cursor.Path = s.absolute(cursor.Path)
	items := s.store.Snapshot()

	var (
		b  domain.Bookmark
		ok bool
	)
	switch dir {
	case DirectionPrevious:
		b, ok = projection.Previous(items, cursor)
	default:
		b, ok = projection.Next(items, cursor)
	}
	if !ok {
		return domain.Bookmark{}, false
	}
	s.store.RecordAccess(b.ID)
	if updated, found := s.store.Get(b.ID); found {
		b = updated
	}
	return b, true
}

// absolute anchors a relative path on the active workspace.
func (s *Service) absolute(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if root := s.activeRoot(); root != "" {
		return filepath.Join(root, path)
	}
	return filepath.Clean(path)
}
