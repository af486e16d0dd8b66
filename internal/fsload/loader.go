// Package fsload reads generator inputs from disk or from an fs.FS.
package fsload

import (
	"context"
	"errors"
	"io/fs"

	"github.com/goliatone/go-drivergen/pkg/source"
)

// Loader implements source.Loader by delegating to file or fs.FS strategies.
type Loader struct {
	fs fs.FS
}

// Ensure the implementation satisfies the public interface.
var _ source.Loader = (*Loader)(nil)

// New constructs a Loader. files backs source.KindFS reads and may be nil when
// only on-disk sources are used.
func New(files fs.FS) *Loader {
	return &Loader{fs: files}
}

// Read fetches the bytes behind src.
func (l *Loader) Read(ctx context.Context, src source.Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("fsload: source is nil")
	}

	switch src.Kind() {
	case source.KindFile:
		return loadFile(ctx, src.Location())
	case source.KindFS:
		return loadFromFS(ctx, l.fs, src.Location())
	default:
		return nil, errors.New("fsload: unsupported source kind")
	}
}
