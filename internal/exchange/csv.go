package exchange

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/MrSnakeDoc/linemark/internal/domain"
)

var csvHeader = []string{"Label", "File", "Line", "Path", "ID"}

func writeCSV(w io.Writer, items []domain.Bookmark) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range items {
		rec := []string{b.Label, b.BaseName(), strconv.Itoa(b.Line + 1), b.AbsolutePath(), b.ID}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readCSV(r io.Reader) ([]domain.Bookmark, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var out []domain.Bookmark
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == csvHeader[0] {
				continue
			}
		}
		if len(rec) < 4 || rec[3] == "" {
			continue
		}
		line, err := strconv.Atoi(rec[2])
		if err != nil {
			continue
		}
		out = append(out, imported(rec[0], rec[3], line))
	}
	return out, nil
}
