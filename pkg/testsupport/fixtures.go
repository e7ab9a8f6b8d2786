package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-datatree/internal/loader"
	"github.com/goliatone/go-datatree/pkg/schema"
	"github.com/goliatone/go-datatree/pkg/snapshot"
)

// LoadDocument reads a native schema fixture through a file source.
func LoadDocument(t *testing.T, path string) *schema.Document {
	t.Helper()

	doc, err := LoadDocumentFromPath(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

// LoadDocumentFromPath returns a Document without requiring testing.T, so
// fixtures can be wired in setup functions.
func LoadDocumentFromPath(path string) (*schema.Document, error) {
	if path == "" {
		return nil, errors.New("testsupport: document path is required")
	}
	doc, err := loader.New().Document(context.Background(), loader.SourceFromFile(path), false)
	if err != nil {
		return nil, fmt.Errorf("testsupport: load document: %w", err)
	}
	return doc, nil
}

// LoadSnapshot reads a JSON or YAML snapshot fixture. A missing file yields
// an empty snapshot.
func LoadSnapshot(t *testing.T, path string) map[string]any {
	t.Helper()

	snap, err := snapshot.ReadFile(path)
	if err != nil {
		t.Fatalf("load snapshot %s: %v", path, err)
	}
	return snap
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
