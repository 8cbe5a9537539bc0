package service

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/linemark/internal/logger"
	"github.com/MrSnakeDoc/linemark/internal/staleness"
)

// HandleRename follows a file or directory rename reported by the host.
// Bookmarks keep their line; the renamed file is re-checked afterwards.
// It returns how many bookmarks moved.
func (s *Service) HandleRename(ctx context.Context, oldPath, newPath string) int {
	oldPath, newPath = s.absolute(oldPath), s.absolute(newPath)
	ws := s.store.Workspaces()

	oldRoot, oldRel := ws.Resolve(oldPath)
	newRoot, newRel := ws.Resolve(newPath)
	moved := s.store.UpdateLocation(oldRel, oldRoot, newRel, newRoot)

	// directory renames and bookmarks stored under another spelling
	for _, b := range s.store.Snapshot() {
		abs := filepath.Clean(b.AbsolutePath())
		target, ok := renamed(abs, oldPath, newPath)
		if !ok {
			continue
		}
		root, rel := ws.Resolve(target)
		if s.store.UpdateLocationByID(b.ID, rel, root) {
			moved++
		}
	}

	s.registry.Rename(oldPath, newPath)
	if moved > 0 {
		s.logger.Info("bookmarks followed rename",
			logger.String("from", oldPath),
			logger.String("to", newPath),
			logger.Int("moved", moved))
		s.detector.CheckFile(ctx, newPath)
	}
	return moved
}

// renamed maps path through a rename of oldPath to newPath.
func renamed(path, oldPath, newPath string) (string, bool) {
	if path == oldPath {
		return newPath, true
	}
	prefix := oldPath + string(filepath.Separator)
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	return filepath.Join(newPath, strings.TrimPrefix(path, prefix)), true
}

// HandleChange re-checks the bookmarks of a modified file. It is a no-op
// while auto_detect_changes is off.
func (s *Service) HandleChange(ctx context.Context, path string) staleness.Report {
	if !s.settings.Options().AutoDetectChanges {
		return staleness.Report{}
	}
	return s.detector.CheckFile(ctx, s.absolute(path))
}

// OpenDocument records the live text of an editor buffer. Reads prefer it
// over the file on disk until CloseDocument.
func (s *Service) OpenDocument(ctx context.Context, path, text string, version int64) staleness.Report {
	path = s.absolute(path)
	s.registry.Open(path, text, version)
	return s.HandleChange(ctx, path)
}

func (s *Service) CloseDocument(path string) {
	s.registry.Close(s.absolute(path))
}

// Check re-checks every bookmark now.
func (s *Service) Check(ctx context.Context) staleness.Report {
	return s.detector.CheckAll(ctx)
}
