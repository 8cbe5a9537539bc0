// Package staleness detects bookmarks whose line no longer holds the text
// that was fingerprinted when the bookmark was placed.
//
// A mismatch marks the bookmark stale and records the new fingerprint, so
// a second change is detected against the latest observed text. A match
// never clears the flag: only re-anchoring (fix position) does.
package staleness

import (
	"context"
	"path/filepath"

	"github.com/MrSnakeDoc/linemark/internal/document"
	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/fingerprint"
	"github.com/MrSnakeDoc/linemark/internal/logger"
	"github.com/MrSnakeDoc/linemark/internal/store"
)

// Check reports whether live differs from the recorded fingerprint.
func Check(b domain.Bookmark, live string) bool {
	return live != b.Fingerprint
}

// Report summarizes one detector run.
type Report struct {
	Checked     int `json:"checked"`
	Stale       int `json:"stale"`       // newly detected mismatches
	Unreachable int `json:"unreachable"` // bookmarks whose line could not be read
}

func (r *Report) add(o Report) {
	r.Checked += o.Checked
	r.Stale += o.Stale
	r.Unreachable += o.Unreachable
}

// Detector applies Check to the bookmarks of a store.
type Detector struct {
	store  *store.Store
	reader document.Reader
	logger logger.Logger
}

func NewDetector(s *store.Store, reader document.Reader, log logger.Logger) *Detector {
	return &Detector{store: s, reader: reader, logger: log}
}

// CheckFile re-checks the bookmarks located in the file at absPath.
func (d *Detector) CheckFile(ctx context.Context, absPath string) Report {
	absPath = filepath.Clean(absPath)
	var owned []domain.Bookmark
	for _, b := range d.store.Snapshot() {
		if filepath.Clean(b.AbsolutePath()) == absPath {
			owned = append(owned, b)
		}
	}
	if len(owned) == 0 {
		return Report{}
	}
	return d.checkGroup(ctx, absPath, owned)
}

// CheckAll re-checks every bookmark, reading each referenced file once.
func (d *Detector) CheckAll(ctx context.Context) Report {
	byFile := make(map[string][]domain.Bookmark)
	var order []string
	for _, b := range d.store.Snapshot() {
		p := filepath.Clean(b.AbsolutePath())
		if _, seen := byFile[p]; !seen {
			order = append(order, p)
		}
		byFile[p] = append(byFile[p], b)
	}

	var total Report
	for _, p := range order {
		if ctx.Err() != nil {
			break
		}
		total.add(d.checkGroup(ctx, p, byFile[p]))
	}

	d.logger.Info("staleness check complete",
		logger.Int("files", len(order)),
		logger.Int("checked", total.Checked),
		logger.Int("stale", total.Stale),
		logger.Int("unreachable", total.Unreachable))
	return total
}

func (d *Detector) checkGroup(ctx context.Context, path string, items []domain.Bookmark) Report {
	var r Report
	lines, readErr := d.reader.Lines(ctx, path)
	if readErr != nil {
		d.logger.Debug("bookmarked file unreadable",
			logger.Path(path),
			logger.Error(readErr))
	}

	for _, b := range items {
		r.Checked++

		var text string
		err := readErr
		if err == nil {
			text, err = document.At(lines, path, b.Line)
		}
		if err != nil {
			if !b.Unreachable || !b.Stale {
				d.store.MarkUnreachable(b.ID)
			}
			r.Unreachable++
			continue
		}

		if b.Unreachable {
			d.store.MarkReachable(b.ID)
		}
		live := fingerprint.Of(text)
		if b.Fingerprint == "" {
			// first observation of a bookmark placed on an unreadable line
			d.store.FixPosition(b.ID, b.Line, live)
			continue
		}
		if Check(b, live) {
			d.store.MarkStale(b.ID, live)
			r.Stale++
		}
	}
	return r
}
