// Package document gives read access to file contents by line.
//
// The host pushes the documents it has open into a Registry; everything
// else is read from disk. Chain combines both so that unsaved editor
// buffers win over the file on disk.
package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/linemark/internal/domain"
)

// ErrNotOpen is returned by Registry for paths the host has not pushed.
var ErrNotOpen = errors.New("document: not open")

// Reader returns the lines of the file at an absolute path.
type Reader interface {
	Lines(ctx context.Context, path string) ([]string, error)
}

// Line returns one zero-based line of path. A read failure or a line past
// the end of the file wraps domain.ErrUnresolvableLocation.
func Line(ctx context.Context, r Reader, path string, line int) (string, error) {
	lines, err := r.Lines(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", path, err, domain.ErrUnresolvableLocation)
	}
	return At(lines, path, line)
}

// At picks a line from an already-read file.
func At(lines []string, path string, line int) (string, error) {
	if line < 0 || line >= len(lines) {
		return "", fmt.Errorf("%s: line %d of %d: %w", path, line, len(lines), domain.ErrUnresolvableLocation)
	}
	return lines[line], nil
}

// Chain tries each reader in order and returns the first success.
type Chain []Reader

func (c Chain) Lines(ctx context.Context, path string) ([]string, error) {
	var errs []error
	for _, r := range c {
		lines, err := r.Lines(ctx, path)
		if err == nil {
			return lines, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no reader for %s", path)
	}
	return nil, errors.Join(errs...)
}
