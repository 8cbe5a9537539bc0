// Package exchange writes and reads bookmark lists in human-editable
// formats. Lines are 1-based on the wire.
package exchange

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/linemark/internal/domain"
)

type Format string

const (
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
	Text     Format = "txt"
)

// Formats lists every supported format.
var Formats = []Format{Markdown, CSV, JSON, Text}

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "markdown", "md":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "txt", "text", "plain":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownFormat, s)
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Extension is the conventional file extension, without the dot.
func (f Format) Extension() string {
	if f == Markdown {
		return "md"
	}
	return string(f)
}

// ContentType is the MIME type served by the HTTP export endpoint.
func (f Format) ContentType() string {
	switch f {
	case Markdown:
		return "text/markdown; charset=utf-8"
	case CSV:
		return "text/csv; charset=utf-8"
	case JSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Export writes items in format f. Paths are written absolute.
func Export(w io.Writer, f Format, items []domain.Bookmark) error {
	switch f {
	case Markdown:
		return writeMarkdown(w, items)
	case CSV:
		return writeCSV(w, items)
	case JSON:
		return writeJSON(w, items)
	case Text:
		return writeText(w, items)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownFormat, f)
	}
}

// Import parses r. The returned bookmarks have an absolute FilePath, a
// zero-based Line and no ID; malformed records are skipped.
func Import(r io.Reader, f Format) ([]domain.Bookmark, error) {
	switch f {
	case Markdown:
		return readMarkdown(r)
	case CSV:
		return readCSV(r)
	case JSON:
		return readJSON(r)
	case Text:
		return readText(r)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFormat, f)
	}
}

func imported(label, path string, line int) domain.Bookmark {
	if line < 1 {
		line = 1
	}
	return domain.Bookmark{
		Label:    strings.TrimSpace(label),
		FilePath: filepath.Clean(strings.TrimSpace(path)),
		Line:     line - 1,
	}
}
