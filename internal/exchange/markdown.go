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

const markdownHeader = "| Label | File | Line | Path |\n|-------|------|------|------|\n"

var markdownRow = regexp.MustCompile("^\\| (.+?) \\| (.+?) \\| Line (\\d+) \\| `(.+?)` \\|\\s*$")

func writeMarkdown(w io.Writer, items []domain.Bookmark) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(markdownHeader)
	for _, b := range items {
		fmt.Fprintf(bw, "| %s | %s | Line %d | `%s` |\n",
			escapeCell(b.Label), escapeCell(b.BaseName()), b.Line+1, b.AbsolutePath())
	}
	return bw.Flush()
}

func readMarkdown(r io.Reader) ([]domain.Bookmark, error) {
	var out []domain.Bookmark
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m := markdownRow.FindStringSubmatch(strings.TrimRight(sc.Text(), "\r"))
		if m == nil {
			continue
		}
		line, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		out = append(out, imported(unescapeCell(m[1]), m[4], line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	return out, nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func unescapeCell(s string) string {
	return strings.ReplaceAll(s, `\|`, "|")
}
