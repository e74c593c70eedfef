package intake

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/RabowNicholas/swna-automation/internal/destination"
)

// IsCandidate reports whether name is an unfiled PDF.
func IsCandidate(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return false
	}
	return !destination.IsCanonicalName(name)
}

// Scan returns the candidate PDFs directly inside dir, sorted by name.
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !IsCandidate(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}
