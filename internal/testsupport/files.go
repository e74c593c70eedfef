package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WritePDF writes a placeholder PDF under dir and returns its path. The body
// is unique per name so documents hash differently.
func WritePDF(t testing.TB, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	WriteFile(t, path, []byte("%PDF-1.4\n% "+name+"\n%%EOF\n"))
	return path
}

// ReadFile returns the contents of path or fails the test.
func ReadFile(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}
