// Package vocab loads indicator vocabularies from files.
package vocab

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/verte-zerg/neuroscreen/internal/annotate"
)

// Load reads one indicator per line from the provided file path. Blank lines
// and lines starting with '#' are skipped.
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only vocabulary file.
			_ = cerr
		}
	}()

	var entries []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}
	return Normalize(entries), nil
}

// Resolve returns the vocabulary at path, or the default one when path is empty.
func Resolve(path string) ([]string, error) {
	if path == "" {
		return Default(), nil
	}
	entries, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary %s: %w", path, err)
	}
	return entries, nil
}

// Default returns a copy of the built-in pause markers.
func Default() []string {
	return append([]string(nil), annotate.DefaultVocabulary...)
}
