package ingestor

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ChristianF88/splatsort/depthsort"
)

// ParseViewFile reads a camera path: one column-major transform per line.
// Blank lines and lines starting with '#' are skipped.
func ParseViewFile(path string) ([]depthsort.ViewTransform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var views []depthsort.ViewTransform
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		view, err := depthsort.ParseViewTransform(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		views = append(views, view)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return views, nil
}
