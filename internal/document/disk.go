package document

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// maxLineSize bounds a single line read from disk.
const maxLineSize = 4 * 1024 * 1024

// Disk reads files from the local file system.
type Disk struct{}

func (Disk) Lines(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	lines := make([]string, 0, 128)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(lines) == 0 {
		// an empty file still has line 0
		lines = append(lines, "")
	}
	return lines, nil
}
