package exchange

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/MrSnakeDoc/linemark/internal/domain"
)

type jsonRecord struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Line  int    `json:"line"`
	ID    string `json:"id,omitempty"`
}

func writeJSON(w io.Writer, items []domain.Bookmark) error {
	records := make([]jsonRecord, 0, len(items))
	for _, b := range items {
		records = append(records, jsonRecord{
			Label: b.Label,
			Path:  b.AbsolutePath(),
			Line:  b.Line + 1,
			ID:    b.ID,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func readJSON(r io.Reader) ([]domain.Bookmark, error) {
	var records []jsonRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	out := make([]domain.Bookmark, 0, len(records))
	for _, rec := range records {
		if rec.Path == "" {
			continue
		}
		out = append(out, imported(rec.Label, rec.Path, rec.Line))
	}
	return out, nil
}
