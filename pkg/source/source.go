// Package source identifies where generator inputs (schemas, manifests,
// descriptors) come from so loaders can read on-disk files or fs.FS entries
// without leaking the strategy to callers.
package source

import (
	"context"
	"path"
	"path/filepath"
)

// Source identifies one input document.
type Source interface {
	Kind() Kind
	Location() string
}

// Kind enumerates the loader modalities.
type Kind string

const (
	KindFile Kind = "file"
	KindFS   Kind = "fs"
)

// Loader reads the bytes behind a Source.
type Loader interface {
	Read(ctx context.Context, src Source) ([]byte, error)
}

type fileSource struct {
	path string
}

func (s fileSource) Location() string {
	return s.path
}

func (s fileSource) Kind() Kind {
	return KindFile
}

// FromFile returns a Source pointing to a file path.
func FromFile(p string) Source {
	return fileSource{path: filepath.Clean(p)}
}

type fsSource struct {
	name string
}

func (s fsSource) Location() string {
	return s.name
}

func (s fsSource) Kind() Kind {
	return KindFS
}

// FromFS returns a Source identifying a resource inside an fs.FS. Names use
// forward slashes as required by io/fs.
func FromFS(name string) Source {
	return fsSource{name: path.Clean(filepath.ToSlash(name))}
}

// Join resolves name relative to dir using the path rules of kind. Absolute
// file names are kept as-is.
func Join(kind Kind, dir, name string) Source {
	if kind == KindFS {
		return FromFS(path.Join(filepath.ToSlash(dir), filepath.ToSlash(name)))
	}
	if filepath.IsAbs(name) {
		return FromFile(name)
	}
	return FromFile(filepath.Join(dir, name))
}
