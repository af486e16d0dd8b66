package source_test

import (
	"path/filepath"
	"testing"

	"github.com/goliatone/go-drivergen/pkg/source"
)

func TestJoin(t *testing.T) {
	file := source.Join(source.KindFile, filepath.Join("scripts", "data_files"), "a.json")
	if file.Kind() != source.KindFile {
		t.Fatalf("kind = %q, want file", file.Kind())
	}
	if want := filepath.Join("scripts", "data_files", "a.json"); file.Location() != want {
		t.Fatalf("location = %q, want %q", file.Location(), want)
	}

	fsys := source.Join(source.KindFS, "driver_jsons/", "./b.json")
	if fsys.Kind() != source.KindFS {
		t.Fatalf("kind = %q, want fs", fsys.Kind())
	}
	if fsys.Location() != "driver_jsons/b.json" {
		t.Fatalf("location = %q, want driver_jsons/b.json", fsys.Location())
	}

	abs := filepath.Join(t.TempDir(), "c.json")
	if got := source.Join(source.KindFile, "ignored", abs); got.Location() != abs {
		t.Fatalf("absolute name resolved to %q, want %q", got.Location(), abs)
	}
}
