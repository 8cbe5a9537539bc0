package exchange

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/linemark/internal/domain"
)

var (
	textSeparator = strings.Repeat("-", 50)
	textTitle     = regexp.MustCompile(`^(.+?)\s+\[Line\s(\d+)\]$`)
)

func writeText(w io.Writer, items []domain.Bookmark) error {
	bw := bufio.NewWriter(w)
	for i, b := range items {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "%s [Line %d]\n%s\n%s\n", b.Label, b.Line+1, b.AbsolutePath(), textSeparator)
	}
	return bw.Flush()
}

func readText(r io.Reader) ([]domain.Bookmark, error) {
	var (
		out     []domain.Bookmark
		title   []string
		pending bool
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case line == textSeparator || strings.TrimSpace(line) == "":
			pending = false
		case !pending:
			title = textTitle.FindStringSubmatch(line)
			pending = title != nil
		default:
			n, err := strconv.Atoi(title[2])
			if err == nil {
				out = append(out, imported(title[1], line, n))
			}
			pending = false
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return out, nil
}
