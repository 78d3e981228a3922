package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadText parses a list written by the text export. Bare URL lines are
// accepted too; blank lines and lines starting with # are skipped.
func ReadText(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		if idx, rest, ok := strings.Cut(s, ","); ok {
			if _, err := strconv.Atoi(strings.TrimSpace(idx)); err == nil {
				s = strings.TrimSpace(rest)
			}
		}
		if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
			return nil, fmt.Errorf("line %d: not a media URL: %q", line, s)
		}
		urls = append(urls, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list: %w", err)
	}
	return urls, nil
}
