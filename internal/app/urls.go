package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/yourusername/yt-batch/internal/domain"
)

// ReadURLFile reads a URL list, one per line. Blank lines and lines that do
// not start with "http" are skipped. Order and duplicates are kept.
func ReadURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInputFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	urls, err := ParseURLList(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read URL file: %w", err)
	}
	if len(urls) == 0 {
		return nil, domain.ErrNoValidURLs
	}
	return urls, nil
}

// ParseURLList returns the qualifying lines of r in order
func ParseURLList(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "http") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}
