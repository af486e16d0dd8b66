package testsupport

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-drivergen/pkg/schema"
)

// Tree layout of a project root as the generator expects it.
var (
	JSONDir     = filepath.Join("scripts", "data_files", "driver_jsons")
	TemplateDir = filepath.Join("scripts", "data_files", "driver_templates")
	OutputDir   = "library"
)

// Descriptor fixtures used across package tests.
const (
	TransparentAES = `{
  "prefix": "aes",
  "type": "transparent",
  "headers": ["aes_driver.h"],
  "capabilities": [
    {"entry_points": ["cipher_encrypt", "cipher_decrypt"], "fallback": true}
  ]
}
`
	OpaqueSE = `{
  "prefix": "se",
  "type": "opaque",
  "location": "0x7fffff",
  "capabilities": [
    {"entry_points": ["sign_hash", "verify_hash"]}
  ]
}
`
	UnknownHardware = `{
  "prefix": "se",
  "type": "hardware",
  "capabilities": []
}
`
	MissingCapabilities = `{
  "prefix": "broken",
  "type": "transparent"
}
`
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// WriteFiles writes each relative path → content pair under root.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// DriverTree creates a temporary project root holding the reference schemas,
// the given descriptors and a manifest listing names in order. It returns the
// root directory.
func DriverTree(t *testing.T, names []string, descriptors map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for _, marker := range []string{"include", "library", "programs", "tests"} {
		if err := os.MkdirAll(filepath.Join(root, marker), 0o755); err != nil {
			t.Fatalf("mkdir marker: %v", err)
		}
	}

	files := make(map[string]string, len(descriptors)+3)
	for _, schemaFile := range []string{schema.TransparentFile, schema.OpaqueFile} {
		raw, err := fs.ReadFile(schema.BuiltinFS(), schemaFile)
		if err != nil {
			t.Fatalf("read builtin schema: %v", err)
		}
		files[filepath.Join(JSONDir, schemaFile)] = string(raw)
	}
	for name, content := range descriptors {
		files[filepath.Join(JSONDir, name)] = content
	}

	if names == nil {
		names = []string{}
	}
	manifest, err := json.Marshal(names)
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	files[filepath.Join(JSONDir, "driverlist.json")] = string(manifest)

	WriteFiles(t, root, files)
	return root
}

// ListFiles returns the names of the regular files directly inside dir, or
// nil when dir does not exist.
func ListFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	var out []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			out = append(out, entry.Name())
		}
	}
	return out
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
